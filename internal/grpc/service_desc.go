package grpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "feedback.v1.FeedbackInsights"

// Method names of the FeedbackInsights service.
const (
	MethodSubmitFeedback        = "SubmitFeedback"
	MethodGetFeedback           = "GetFeedback"
	MethodUpdateStatus          = "UpdateStatus"
	MethodRespondToFeedback     = "RespondToFeedback"
	MethodClassifyFeedback      = "ClassifyFeedback"
	MethodReanalyzeFeedback     = "ReanalyzeFeedback"
	MethodGetSentimentOverview  = "GetSentimentOverview"
	MethodGetServiceTypeMetrics = "GetServiceTypeMetrics"
	MethodGetSentimentTrends    = "GetSentimentTrends"
	MethodGetCategoryInsights   = "GetCategoryInsights"
	MethodGetEmotionAnalysis    = "GetEmotionAnalysis"
	MethodGetUrgencyDashboard   = "GetUrgencyDashboard"
	MethodGetPulseMetrics       = "GetPulseMetrics"
	MethodGetActionableInsights = "GetActionableInsights"
	MethodGetBranchComparison   = "GetBranchComparison"
)

// FeedbackInsightsServer is the server API of the FeedbackInsights service.
// Requests and responses are google.protobuf.Struct messages whose fields
// use the JSON names of the domain types.
type FeedbackInsightsServer interface {
	SubmitFeedback(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetFeedback(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RespondToFeedback(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ClassifyFeedback(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ReanalyzeFeedback(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSentimentOverview(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetServiceTypeMetrics(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSentimentTrends(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCategoryInsights(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetEmotionAnalysis(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetUrgencyDashboard(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetPulseMetrics(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetActionableInsights(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetBranchComparison(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(FeedbackInsightsServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(FeedbackInsightsServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(name),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(FeedbackInsightsServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// FeedbackInsightsServiceDesc describes the FeedbackInsights service for
// grpc.Server.RegisterService.
var FeedbackInsightsServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FeedbackInsightsServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler(MethodSubmitFeedback, FeedbackInsightsServer.SubmitFeedback),
		unaryHandler(MethodGetFeedback, FeedbackInsightsServer.GetFeedback),
		unaryHandler(MethodUpdateStatus, FeedbackInsightsServer.UpdateStatus),
		unaryHandler(MethodRespondToFeedback, FeedbackInsightsServer.RespondToFeedback),
		unaryHandler(MethodClassifyFeedback, FeedbackInsightsServer.ClassifyFeedback),
		unaryHandler(MethodReanalyzeFeedback, FeedbackInsightsServer.ReanalyzeFeedback),
		unaryHandler(MethodGetSentimentOverview, FeedbackInsightsServer.GetSentimentOverview),
		unaryHandler(MethodGetServiceTypeMetrics, FeedbackInsightsServer.GetServiceTypeMetrics),
		unaryHandler(MethodGetSentimentTrends, FeedbackInsightsServer.GetSentimentTrends),
		unaryHandler(MethodGetCategoryInsights, FeedbackInsightsServer.GetCategoryInsights),
		unaryHandler(MethodGetEmotionAnalysis, FeedbackInsightsServer.GetEmotionAnalysis),
		unaryHandler(MethodGetUrgencyDashboard, FeedbackInsightsServer.GetUrgencyDashboard),
		unaryHandler(MethodGetPulseMetrics, FeedbackInsightsServer.GetPulseMetrics),
		unaryHandler(MethodGetActionableInsights, FeedbackInsightsServer.GetActionableInsights),
		unaryHandler(MethodGetBranchComparison, FeedbackInsightsServer.GetBranchComparison),
	},
	Streams: []grpc.StreamDesc{},
}

func RegisterFeedbackInsightsServer(s grpc.ServiceRegistrar, srv FeedbackInsightsServer) {
	s.RegisterService(&FeedbackInsightsServiceDesc, srv)
}

func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// Client is a thin caller for the FeedbackInsights service.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with a request built from in and decodes the response
// into out. Either may be nil.
func (c *Client) Call(ctx context.Context, method string, in, out any, opts ...grpc.CallOption) error {
	req := &structpb.Struct{}
	if in != nil {
		var err error
		if req, err = encode(in); err != nil {
			return err
		}
	}
	resp := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), req, resp, opts...); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return decode(resp, out, false)
}

// decode copies a Struct into dst through its JSON form.
func decode(src *structpb.Struct, dst any, strict bool) error {
	if src == nil {
		return nil
	}
	raw, err := protojson.Marshal(src)
	if err != nil {
		return fmt.Errorf("marshal struct: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if strict {
		dec.DisallowUnknownFields()
	}
	return dec.Decode(dst)
}

// encode converts v into a Struct through its JSON form. v must encode as a
// JSON object.
func encode(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("unmarshal struct: %w", err)
	}
	return out, nil
}
