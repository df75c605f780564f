package grpc

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/weiawesome/wes-idgen/internal/domain"
	"github.com/weiawesome/wes-idgen/internal/generator"
	"github.com/weiawesome/wes-idgen/internal/location"
	"github.com/weiawesome/wes-idgen/internal/service"
	pkglog "github.com/weiawesome/wes-idgen/pkg/log"
)

const ServiceName = "idgen.v1.IdentifierService"

// IdentifierServer is the server API of idgen.v1.IdentifierService. Messages
// are google.protobuf.Struct values keyed like the HTTP API's JSON bodies.
type IdentifierServer interface {
	GenerateIdentifiers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ValidateIdentifier(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ParseIdentifier(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(IdentifierServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func methodHandler(name string, call unaryMethod) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(IdentifierServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(IdentifierServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes idgen.v1.IdentifierService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*IdentifierServer)(nil),
	Methods: []grpc.MethodDesc{
		methodHandler("GenerateIdentifiers", IdentifierServer.GenerateIdentifiers),
		methodHandler("ValidateIdentifier", IdentifierServer.ValidateIdentifier),
		methodHandler("ParseIdentifier", IdentifierServer.ParseIdentifier),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "idgen/v1/idgen.proto",
}

type identifierServer struct {
	identifierService service.IdentifierService
}

// NewIdentifierServer adapts svc to the gRPC API.
func NewIdentifierServer(svc service.IdentifierService) IdentifierServer {
	return &identifierServer{identifierService: svc}
}

func (s *identifierServer) GenerateIdentifiers(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sourceID, err := requiredInt(req, "source_id")
	if err != nil {
		return nil, err
	}
	count, _, err := optionalInt(req, "count")
	if err != nil {
		return nil, err
	}
	locationID, err := locationIDField(req)
	if err != nil {
		return nil, err
	}

	resp, err := s.identifierService.GenerateIdentifiers(ctx, sourceID, &domain.GenerateIdentifiersRequest{
		Count:      int(count),
		LocationID: locationID,
	})
	if err != nil {
		return nil, toStatus(err)
	}

	identifiers := make([]interface{}, len(resp.Identifiers))
	for i, id := range resp.Identifiers {
		identifiers[i] = id
	}
	return newStruct(map[string]interface{}{
		"source_id":   resp.SourceID,
		"first_seed":  resp.FirstSeed,
		"identifiers": identifiers,
	})
}

func (s *identifierServer) ValidateIdentifier(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sourceID, ir, err := identifierRequest(req)
	if err != nil {
		return nil, err
	}

	resp, err := s.identifierService.ValidateIdentifier(ctx, sourceID, ir)
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(map[string]interface{}{
		"identifier": resp.Identifier,
		"valid":      resp.Valid,
		"reason":     resp.Reason,
	})
}

func (s *identifierServer) ParseIdentifier(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	sourceID, ir, err := identifierRequest(req)
	if err != nil {
		return nil, err
	}

	resp, err := s.identifierService.ParseIdentifier(ctx, sourceID, ir)
	if err != nil {
		return nil, toStatus(err)
	}
	return newStruct(map[string]interface{}{
		"identifier": resp.Identifier,
		"seed":       resp.Seed,
	})
}

// NewServer returns a grpc.Server with the identifier service registered.
func NewServer(svc service.IdentifierService, logger zerolog.Logger) *grpc.Server {
	s := grpc.NewServer(
		grpc.UnaryInterceptor(pkglog.UnaryServerInterceptor(logger)),
	)
	s.RegisterService(&ServiceDesc, NewIdentifierServer(svc))
	return s
}

func identifierRequest(req *structpb.Struct) (int64, *domain.IdentifierRequest, error) {
	sourceID, err := requiredInt(req, "source_id")
	if err != nil {
		return 0, nil, err
	}
	identifier := req.GetFields()["identifier"].GetStringValue()
	if identifier == "" {
		return 0, nil, status.Error(codes.InvalidArgument, "identifier is required")
	}
	locationID, err := locationIDField(req)
	if err != nil {
		return 0, nil, err
	}
	return sourceID, &domain.IdentifierRequest{Identifier: identifier, LocationID: locationID}, nil
}

func locationIDField(req *structpb.Struct) (*int64, error) {
	id, ok, err := optionalInt(req, "location_id")
	if err != nil || !ok {
		return nil, err
	}
	return &id, nil
}

func requiredInt(req *structpb.Struct, key string) (int64, error) {
	v, ok, err := optionalInt(req, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	return v, nil
}

// optionalInt reads an integral number field; ok is false when it is absent.
func optionalInt(req *structpb.Struct, key string) (int64, bool, error) {
	v, present := req.GetFields()[key]
	if !present {
		return 0, false, nil
	}
	n, isNumber := v.GetKind().(*structpb.Value_NumberValue)
	if !isNumber || n.NumberValue != float64(int64(n.NumberValue)) {
		return 0, false, status.Errorf(codes.InvalidArgument, "%s must be an integer", key)
	}
	return int64(n.NumberValue), true, nil
}

func newStruct(fields map[string]interface{}) (*structpb.Struct, error) {
	for k, v := range fields {
		if n, ok := v.(int64); ok {
			fields[k] = float64(n)
		}
	}
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, service.ErrSourceNotFound), errors.Is(err, service.ErrLocationNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrInvalidCount),
		errors.Is(err, generator.ErrFormatMismatch),
		errors.Is(err, generator.ErrCheckDigitMismatch):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, generator.ErrInvalidConfiguration),
		errors.Is(err, generator.ErrCheckDigit),
		errors.Is(err, location.ErrNoLocationInContext),
		errors.Is(err, location.ErrPrefixNotFound),
		errors.Is(err, location.ErrUnknownProvider):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
