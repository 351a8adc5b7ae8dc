package grpc

import (
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/nadzzz/lekha/internal/composer"
	"github.com/nadzzz/lekha/internal/config"
	"github.com/nadzzz/lekha/internal/dispatch"
	"github.com/nadzzz/lekha/internal/message"
	"github.com/nadzzz/lekha/internal/transformer"
	"github.com/nadzzz/lekha/internal/transformer/local"
	"github.com/nadzzz/lekha/internal/transport/validate"
)

func startServer(t *testing.T) *grpc.ClientConn {
	t.Helper()
	tables, err := composer.DefaultTables()
	require.NoError(t, err)
	comp, err := composer.New(tables)
	require.NoError(t, err)
	tr := transformer.New(transformer.Options{Fallback: local.New(config.LocalConfig{})})
	svc := dispatch.New(tr, comp, dispatch.Options{})

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	tp := New(0)
	done := make(chan error, 1)
	go func() { done <- tp.Serve(ctx, lis, svc) }()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		conn.Close()
		cancel()
		assert.NoError(t, <-done)
	})
	return conn
}

func TestGenerateRoundTrip(t *testing.T) {
	client := NewClient(startServer(t))

	res, err := client.Generate(context.Background(), &message.GenerateRequest{
		Text:     "road needs repair near the market",
		Output:   message.OutputEnglish,
		Category: message.CategoryComplaint,
		Recipient: &message.RecipientMetadata{
			Name:      "Ravi",
			Honorific: message.HonorificSir,
		},
	})
	require.NoError(t, err)

	require.Len(t, res.Letters, 1)
	assert.NotEmpty(t, res.RequestID)
	assert.Contains(t, res.Letters[0].Text, "road needs repair near the market")
	assert.Contains(t, res.Letters[0].Text, "Ravi Sir,")
	assert.Equal(t, message.SourceIdentity, res.Letters[0].TransformSource)
}

func TestGenerateInvalidArgument(t *testing.T) {
	client := NewClient(startServer(t))

	_, err := client.Generate(context.Background(), &message.GenerateRequest{Text: "  "})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	tests := []struct {
		name string
		req  *message.GenerateRequest
		want string
	}{
		{"bad output", &message.GenerateRequest{Text: "x", Output: "fr"}, "output must be one of"},
		{"bad mode", &message.GenerateRequest{Text: "x", Mode: "junk"}, "mode must be one of"},
		{"long category", &message.GenerateRequest{Text: "x", Category: message.LetterCategory(strings.Repeat("c", 65))}, "category must be at most 64"},
		{"long recipient", &message.GenerateRequest{Text: "x", Recipient: &message.RecipientMetadata{Name: strings.Repeat("n", 201)}}, "name must be at most 200"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.Generate(context.Background(), tt.req)
			assert.Equal(t, codes.InvalidArgument, status.Code(err))
			assert.Contains(t, status.Convert(err).Message(), tt.want)
		})
	}
}

func TestTransformInvalidArgument(t *testing.T) {
	client := NewClient(startServer(t))

	for _, req := range []message.TransformRequest{
		{Text: "x", TargetLanguage: "en", Mode: "junk"},
		{Text: "x", TargetLanguage: "en", SourceLanguage: "fr"},
		{Text: "", TargetLanguage: "en"},
	} {
		_, err := client.Transform(context.Background(), req)
		assert.Equal(t, codes.InvalidArgument, status.Code(err), "req=%+v", req)
	}
}

func TestCloseBeforeServe(t *testing.T) {
	tp := New(0)
	require.NoError(t, tp.Close())

	lis := bufconn.Listen(1 << 20)
	assert.NoError(t, tp.Serve(context.Background(), lis, nil))
}

func TestCloseWhileServing(t *testing.T) {
	tp := New(0)
	lis := bufconn.Listen(1 << 20)
	done := make(chan error, 1)
	go func() { done <- tp.Serve(context.Background(), lis, nil) }()

	// Close may run before or after Serve publishes its server.
	require.NoError(t, tp.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Close")
	}
}

func TestDetectAndTransform(t *testing.T) {
	client := NewClient(startServer(t))

	lang, err := client.Detect(context.Background(), "ఫిర్యాదు")
	require.NoError(t, err)
	assert.Equal(t, message.LanguageTelugu, lang)

	res, err := client.Transform(context.Background(), message.TransformRequest{
		Text:           "drain is blocked",
		TargetLanguage: message.LanguageEnglish,
		Mode:           message.ModeExpand,
	})
	require.NoError(t, err)
	assert.Equal(t, message.SourceFallback, res.Source)
	assert.Contains(t, res.Text, "drain is blocked.")

	_, err = client.Transform(context.Background(), message.TransformRequest{Text: "x", TargetLanguage: "hi"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestHealthService(t *testing.T) {
	conn := startServer(t)

	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestToStatus(t *testing.T) {
	assert.Equal(t, codes.InvalidArgument, status.Code(toStatus(dispatch.ErrEmptyInput)))
	assert.Equal(t, codes.InvalidArgument, status.Code(toStatus(fmt.Errorf("%w: mode is bad", validate.ErrInvalid))))
	assert.Equal(t, codes.Canceled, status.Code(toStatus(context.Canceled)))
	assert.Equal(t, codes.DeadlineExceeded, status.Code(toStatus(context.DeadlineExceeded)))
	assert.Equal(t, codes.Internal, status.Code(toStatus(assert.AnError)))
}
