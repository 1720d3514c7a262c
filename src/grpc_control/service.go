package grpc_control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"auction-predictor/src/helpers"
	"auction-predictor/src/interfaces"
	"auction-predictor/src/logger"
	"auction-predictor/src/models"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// PredictionService implements PredictionServiceServer on top of the prediction pipeline.
type PredictionService struct {
	Predictor interfaces.IPredictor
	Logger    *logger.Logger
	started   time.Time
}

// NewPredictionService creates a new instance of PredictionService
func NewPredictionService(predictor interfaces.IPredictor, log *logger.Logger) *PredictionService {
	return &PredictionService{
		Predictor: predictor,
		Logger:    log,
		started:   time.Now(),
	}
}

// -----------------------------------------------------------------------------

func (s *PredictionService) Predict(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := requestFromStruct(in)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	result, err := s.Predictor.Predict(ctx, req)
	if err != nil {
		return nil, s.statusError(err)
	}
	return toStruct(result)
}

// -----------------------------------------------------------------------------

func (s *PredictionService) ListModels(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct(map[string]interface{}{"models": s.Predictor.Models()})
}

// -----------------------------------------------------------------------------

func (s *PredictionService) Health(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"status":         "ok",
		"models_loaded":  len(s.Predictor.Models()),
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
	})
}

// -----------------------------------------------------------------------------

// statusError maps pipeline errors onto gRPC codes.
func (s *PredictionService) statusError(err error) error {
	var data *helpers.DataError
	switch {
	case helpers.IsValidation(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.As(err, &data):
		return status.Error(codes.InvalidArgument, data.Message)
	case helpers.IsComputation(err):
		s.Logger.Error("gRPC: prediction computation failed: %v", err)
		return status.Error(codes.Internal, "prediction computation failed")
	default:
		s.Logger.Error("gRPC: prediction failed: %v", err)
		return status.Error(codes.Internal, "internal server error")
	}
}

// -----------------------------------------------------------------------------

func requestFromStruct(in *structpb.Struct) (models.MPredictionRequest, error) {
	var req models.MPredictionRequest
	if in == nil {
		return req, fmt.Errorf("request body is required")
	}
	fields := in.GetFields()

	str := func(key string) (string, error) {
		v, ok := fields[key]
		if !ok {
			return "", fmt.Errorf("%s is required", key)
		}
		sv, ok := v.GetKind().(*structpb.Value_StringValue)
		if !ok {
			return "", fmt.Errorf("%s must be a string", key)
		}
		return sv.StringValue, nil
	}

	var err error
	if req.ProductGroup, err = str("product_group"); err != nil {
		return req, err
	}
	if req.Date, err = str("date"); err != nil {
		return req, err
	}
	if req.Location, err = str("location"); err != nil {
		return req, err
	}

	q, ok := fields["quantity"]
	if !ok {
		return req, fmt.Errorf("quantity is required")
	}
	nv, ok := q.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return req, fmt.Errorf("quantity must be a number")
	}
	req.Quantity = nv.NumberValue
	return req, nil
}

// toStruct converts any JSON-serializable value through its json tags.
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Serve listens on addr until ctx is cancelled, then stops gracefully.
func Serve(ctx context.Context, addr string, svc PredictionServiceServer, log *logger.Logger) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen for gRPC: %w", err)
	}

	grpcServer := grpc.NewServer()
	RegisterPredictionServiceServer(grpcServer, svc)

	go func() {
		<-ctx.Done()
		log.Info("Stopping gRPC server")
		grpcServer.GracefulStop()
	}()

	log.Info("Starting gRPC Prediction Server on %s", addr)
	if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}
