package grpcserver_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/smarthow-source/ATS-design-concept/internal/grpcserver"
	"github.com/smarthow-source/ATS-design-concept/internal/pipeline"
	"github.com/smarthow-source/ATS-design-concept/internal/settings"
	"github.com/smarthow-source/ATS-design-concept/internal/store/memory"
	"github.com/smarthow-source/ATS-design-concept/internal/tracker"
)

func dial(t *testing.T) *grpc.ClientConn {
	t.Helper()
	st := memory.New()
	require.NoError(t, st.Seed(context.Background(),
		[]pipeline.Job{
			{ID: "job-1", Title: "Senior Frontend Engineer", HiringManager: "David Chen", Management: "Sarah Zhang", JobFamilyCode: "D"},
			{ID: "job-4", Title: "Marketing Specialist", HiringManager: "Jane Doe", Management: "Robert Ng", JobFamilyCode: "R"},
		},
		[]pipeline.Candidate{
			{ID: "6", JobID: "job-4", Name: "Kevin Malone", Role: "Marketing Specialist", Status: pipeline.StagePrescreen,
				ApplicationTimestamp: time.Now(), HiringManager: "Jane Doe", Log: pipeline.Log{}},
		}))
	svc := tracker.NewService(st, settings.New(settings.Defaults()), nil, zaptest.NewLogger(t))

	lis := bufconn.Listen(1 << 20)
	gs := grpcserver.New(svc, zaptest.NewLogger(t))
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func call(ctx context.Context, conn *grpc.ClientConn, method string, req map[string]any) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	err = conn.Invoke(ctx, grpcserver.FullMethod(method), in, out)
	return out, err
}

func TestGetCandidate(t *testing.T) {
	conn := dial(t)
	out, err := call(context.Background(), conn, "GetCandidate", map[string]any{"id": "6"})
	require.NoError(t, err)

	c := out.GetFields()["candidate"].GetStructValue()
	assert.Equal(t, "Kevin Malone", c.GetFields()["name"].GetStringValue())
	assert.Equal(t, "Prescreen", out.GetFields()["workingStage"].GetStringValue())

	_, err = call(context.Background(), conn, "GetCandidate", map[string]any{"id": "nope"})
	assert.Equal(t, codes.NotFound, status.Code(err))

	_, err = call(context.Background(), conn, "GetCandidate", map[string]any{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestConfirmStage_RoleFromMetadata(t *testing.T) {
	conn := dial(t)
	ctx := metadata.AppendToOutgoingContext(context.Background(), "x-user-role", "HiringManager")

	out, err := call(ctx, conn, "ConfirmStage", map[string]any{
		"id":    "6",
		"stage": "Prescreen",
		"form":  map[string]any{"prescreenResult": "Pass"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Online-test", out.GetFields()["to"].GetStringValue())
	entry := out.GetFields()["entry"].GetStructValue()
	assert.Equal(t, "Jane Doe", entry.GetFields()["taName"].GetStringValue())

	_, err = call(ctx, conn, "ConfirmStage", map[string]any{"id": "6", "stage": "Offering"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestListMoveDrop(t *testing.T) {
	conn := dial(t)
	ctx := context.Background()

	out, err := call(ctx, conn, "ListCandidates", map[string]any{"jobId": "job-4"})
	require.NoError(t, err)
	assert.Len(t, out.GetFields()["candidates"].GetListValue().GetValues(), 1)

	out, err = call(ctx, conn, "MoveCandidate", map[string]any{"id": "6", "jobId": "job-1", "role": "TA"})
	require.NoError(t, err)
	c := out.GetFields()["candidate"].GetStructValue()
	assert.Equal(t, "job-1", c.GetFields()["jobId"].GetStringValue())

	out, err = call(ctx, conn, "DropCandidate", map[string]any{"id": "6", "reason": "Unresponsive"})
	require.NoError(t, err)
	assert.Equal(t, "Disqualified", out.GetFields()["to"].GetStringValue())

	_, err = call(ctx, conn, "DropCandidate", map[string]any{"id": "6", "reason": "Other", "role": "CEO"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}
