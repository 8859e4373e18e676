package common

import (
	"context"
	"time"

	"resumatch/internal/errors"
	"resumatch/internal/pipeline"

	"github.com/google/uuid"
)

// OperationFunc runs one pipeline operation for a CLI command.
type OperationFunc[Output any] func(context.Context) (Output, error)

// RunCommand tags ctx with a fresh request id, runs op, logs the outcome and
// writes the formatted result.
func RunCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	output *OutputHandler,
	cmdConfig CommandConfig,
	operation string,
	op OperationFunc[Output],
) error {
	if logger == nil {
		logger = errors.NewNopLogger()
	}
	requestID := uuid.NewString()
	ctx = pipeline.WithRequestID(ctx, requestID)
	log := logger.With("request_id", requestID, "operation", operation)

	log.Debug("Starting operation", "format", cmdConfig.OutputFormat)
	start := time.Now()

	result, err := op(ctx)
	if err != nil {
		return err
	}

	log.Info("Operation completed", "duration_ms", time.Since(start).Milliseconds())
	return output.HandleOutput(result, cmdConfig)
}
