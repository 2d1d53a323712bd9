package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	channeldomain "github.com/steeplehq/steeple/internal/channel/domain"
	"github.com/steeplehq/steeple/internal/channel/repository"
	"github.com/steeplehq/steeple/internal/clock"
	"github.com/steeplehq/steeple/pkg/db"
	"go.uber.org/zap"
)

type recordingBroadcaster struct {
	messages []*channeldomain.Message
}

func (b *recordingBroadcaster) BroadcastMessage(message *channeldomain.Message) {
	b.messages = append(b.messages, message)
}

type testEnv struct {
	svc         channeldomain.Service
	broadcaster *recordingBroadcaster
	node        *snowflake.Node
	clock       *clock.FakeClock
	tenantID    snowflake.ID
	accountID   snowflake.ID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&channeldomain.Channel{}, &channeldomain.Message{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	broadcaster := &recordingBroadcaster{}
	clk := clock.NewFakeClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	return &testEnv{
		svc:         NewService(zap.NewNop(), repository.NewRepository(dbConn), broadcaster, node, clk),
		broadcaster: broadcaster,
		node:        node,
		clock:       clk,
		tenantID:    node.Generate(),
		accountID:   node.Generate(),
	}
}

func TestCreateAndGetChannel(t *testing.T) {
	env := newTestEnv(t)

	channel, err := env.svc.CreateChannel(context.Background(), env.tenantID, env.accountID, channeldomain.CreateChannelRequest{
		Name: "Youth Group",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if channel.Slug != "youth-group" {
		t.Fatalf("unexpected slug %s", channel.Slug)
	}

	got, err := env.svc.GetChannel(context.Background(), env.tenantID, channel.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.ID != channel.ID {
		t.Fatalf("got wrong channel")
	}
}

func TestChannelRefusedAcrossTenants(t *testing.T) {
	env := newTestEnv(t)

	channel, err := env.svc.CreateChannel(context.Background(), env.tenantID, env.accountID, channeldomain.CreateChannelRequest{Name: "General"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	otherTenant := env.node.Generate()
	_, err = env.svc.GetChannel(context.Background(), otherTenant, channel.ID)
	if err != channeldomain.ErrTenantMismatch {
		t.Fatalf("expected ErrTenantMismatch for foreign tenant, got %v", err)
	}

	_, err = env.svc.PostMessage(context.Background(), otherTenant, env.accountID, channel.ID, "hello")
	if err != channeldomain.ErrTenantMismatch {
		t.Fatalf("expected ErrTenantMismatch on cross-tenant post, got %v", err)
	}
}

func TestPostMessageBroadcasts(t *testing.T) {
	env := newTestEnv(t)

	channel, err := env.svc.CreateChannel(context.Background(), env.tenantID, env.accountID, channeldomain.CreateChannelRequest{Name: "General"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	message, err := env.svc.PostMessage(context.Background(), env.tenantID, env.accountID, channel.ID, "welcome everyone")
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	if message.Body != "welcome everyone" {
		t.Fatalf("unexpected body %q", message.Body)
	}

	if len(env.broadcaster.messages) != 1 {
		t.Fatalf("expected 1 broadcast, got %d", len(env.broadcaster.messages))
	}
	if env.broadcaster.messages[0].ID != message.ID {
		t.Fatalf("broadcast carries wrong message")
	}
}

func TestPostMessageRejectsEmptyBody(t *testing.T) {
	env := newTestEnv(t)

	channel, err := env.svc.CreateChannel(context.Background(), env.tenantID, env.accountID, channeldomain.CreateChannelRequest{Name: "General"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err = env.svc.PostMessage(context.Background(), env.tenantID, env.accountID, channel.ID, "   ")
	if err != channeldomain.ErrEmptyMessage {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
	if len(env.broadcaster.messages) != 0 {
		t.Fatalf("rejected message must not broadcast")
	}
}

func TestDuplicateSlugWithinTenant(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.svc.CreateChannel(context.Background(), env.tenantID, env.accountID, channeldomain.CreateChannelRequest{Name: "General"}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err := env.svc.CreateChannel(context.Background(), env.tenantID, env.accountID, channeldomain.CreateChannelRequest{Name: "General"})
	if err != channeldomain.ErrSlugTaken {
		t.Fatalf("expected ErrSlugTaken, got %v", err)
	}

	// The same name is fine in a different tenant.
	if _, err := env.svc.CreateChannel(context.Background(), env.node.Generate(), env.accountID, channeldomain.CreateChannelRequest{Name: "General"}); err != nil {
		t.Fatalf("create in other tenant failed: %v", err)
	}
}

func TestUpdateAndDeleteChannel(t *testing.T) {
	env := newTestEnv(t)

	channel, err := env.svc.CreateChannel(context.Background(), env.tenantID, env.accountID, channeldomain.CreateChannelRequest{Name: "General"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	name := "Announcements"
	updated, err := env.svc.UpdateChannel(context.Background(), env.tenantID, channel.ID, channeldomain.UpdateChannelRequest{Name: &name})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.Name != "Announcements" || updated.Slug != "announcements" {
		t.Fatalf("unexpected update result %+v", updated)
	}

	if err := env.svc.DeleteChannel(context.Background(), env.tenantID, channel.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := env.svc.GetChannel(context.Background(), env.tenantID, channel.ID); err != channeldomain.ErrChannelNotFound {
		t.Fatalf("expected ErrChannelNotFound after delete, got %v", err)
	}
}

func TestListMessagesCreationOrder(t *testing.T) {
	env := newTestEnv(t)

	channel, err := env.svc.CreateChannel(context.Background(), env.tenantID, env.accountID, channeldomain.CreateChannelRequest{Name: "General"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	for _, body := range []string{"first", "second", "third"} {
		if _, err := env.svc.PostMessage(context.Background(), env.tenantID, env.accountID, channel.ID, body); err != nil {
			t.Fatalf("post failed: %v", err)
		}
		env.clock.Advance(time.Minute)
	}

	// The latest page, still in creation order.
	messages, err := env.svc.ListMessages(context.Background(), env.tenantID, channel.ID, 2)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Body != "second" || messages[1].Body != "third" {
		t.Fatalf("expected [second third], got [%s %s]", messages[0].Body, messages[1].Body)
	}
}
