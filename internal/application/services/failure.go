package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/DanielPopoola/epay-reconciler/internal/application"
	"github.com/DanielPopoola/epay-reconciler/internal/domain"
)

// FailureService records failure reports against gateway orders.
type FailureService struct {
	uow    application.UnitOfWork
	codec  application.GatewayCodec
	logger *slog.Logger
}

func NewFailureService(uow application.UnitOfWork, codec application.GatewayCodec, logger *slog.Logger) *FailureService {
	return &FailureService{uow: uow, codec: codec, logger: logger}
}

// ProcessFailure attaches the reported error to its order and returns the gateway message.
// Nothing is persisted when the order is unknown.
func (s *FailureService) ProcessFailure(ctx context.Context, raw []byte) (string, error) {
	if len(raw) == 0 {
		return "", application.NewInvalidArgumentError(errMissing("failure payload"))
	}

	msg, err := s.codec.ParseFailure(raw)
	if err != nil {
		return "", application.NewInvalidArgumentError(err)
	}

	log := s.logger.With("order_number", msg.OrderNumber)
	log.Info("failure report received", "code", msg.Code, "message", msg.Message)

	err = s.uow.WithTransaction(ctx, func(ctx context.Context, repos application.Repositories) error {
		qe, err := domain.NewQazkomError(uuid.New().String(), msg.OrderNumber, msg.Code, msg.Type, msg.Message, msg.Timestamp)
		if err != nil {
			return err
		}
		if err := repos.Errors.Save(ctx, qe); err != nil {
			return err
		}

		if msg.OrderNumber == "" {
			return domain.NewNotFoundError("gateway order", "<empty>")
		}
		order, err := repos.Orders.FindByNumber(ctx, msg.OrderNumber)
		if err != nil {
			return err
		}
		if err := order.AttachError(qe); err != nil {
			return err
		}
		return repos.Orders.Update(ctx, order)
	})
	if err != nil {
		err = application.TranslateError(err)
		log.Warn("failure report not applied",
			"category", application.CategorizeError(err),
			"error", err,
		)
		return "", err
	}

	return msg.Message, nil
}
