package service

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/handwerkly/chat-backend/internal/models"
	"github.com/handwerkly/chat-backend/internal/testutil"
)

type publishedFrame struct {
	roomID  uint
	payload OutboundChatMessage
}

// recordingPublisher captures everything the service publishes, in call order.
type recordingPublisher struct {
	mu     sync.Mutex
	frames []publishedFrame
}

func (p *recordingPublisher) Publish(roomID uint, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.frames = append(p.frames, publishedFrame{roomID: roomID, payload: payload.(OutboundChatMessage)})
}

func (p *recordingPublisher) recorded() []publishedFrame {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]publishedFrame, len(p.frames))
	copy(out, p.frames)
	return out
}

func TestSendMessagePublishesAfterAppend(t *testing.T) {
	f := newChatFixture()
	pub := &recordingPublisher{}
	f.svc.SetPublisher(pub)

	room, _, _ := f.svc.GetOrCreateRoom(1, 1, 2)
	msg, err := f.svc.SendMessage(room.ID, 2, "", "Hallo")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	frames := pub.recorded()
	if len(frames) != 1 {
		t.Fatalf("expected 1 published frame, got %d", len(frames))
	}
	got := frames[0]
	if got.roomID != room.ID {
		t.Errorf("published to room %d, want %d", got.roomID, room.ID)
	}
	if got.payload.Type != "chat_message" || got.payload.MessageID != msg.ID {
		t.Errorf("unexpected payload: %+v", got.payload)
	}
	if got.payload.SenderDisplayName != "Max Meister" {
		t.Errorf("sender display name = %q", got.payload.SenderDisplayName)
	}

	// The message was stored before the frame went out.
	msgs, _ := f.svc.ListMessages(room.ID, 1)
	if len(msgs) != 1 || msgs[0].ID != got.payload.MessageID {
		t.Errorf("published frame does not match stored message: %+v vs %+v", got.payload, msgs)
	}
}

func TestSendMessageDedupResendPublishesOnce(t *testing.T) {
	f := newChatFixture()
	pub := &recordingPublisher{}
	f.svc.SetPublisher(pub)

	room, _, _ := f.svc.GetOrCreateRoom(1, 1, 2)
	clientID := "33333333-3333-3333-3333-333333333333"

	first, err := f.svc.SendMessage(room.ID, 1, clientID, "Hallo")
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	// The client never saw the ack and sends again.
	second, err := f.svc.SendMessage(room.ID, 1, clientID, "Hallo")
	if err != nil {
		t.Fatalf("resend failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("resend stored a duplicate: %d vs %d", first.ID, second.ID)
	}

	// Subscribers see the message exactly once, matching history.
	frames := pub.recorded()
	if len(frames) != 1 {
		t.Fatalf("deduplicated resend published %d frames, want 1", len(frames))
	}
	if frames[0].payload.MessageID != first.ID {
		t.Errorf("published frame carries message %d, want %d", frames[0].payload.MessageID, first.ID)
	}
}

func TestSendMessageRejectedNothingPublished(t *testing.T) {
	f := newChatFixture()
	pub := &recordingPublisher{}
	f.svc.SetPublisher(pub)

	room, _, _ := f.svc.GetOrCreateRoom(1, 1, 2)
	if _, err := f.svc.SendMessage(room.ID, 2, "", "  "); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
	if _, err := f.svc.SendMessage(room.ID, 99, "", "Hallo"); !errors.Is(err, ErrNotParticipant) {
		t.Fatalf("expected ErrNotParticipant, got %v", err)
	}

	if frames := pub.recorded(); len(frames) != 0 {
		t.Errorf("rejected sends published %d frames", len(frames))
	}
}

func TestSendMessagePublishOrderMatchesStorageOrder(t *testing.T) {
	f := newChatFixture()
	pub := &recordingPublisher{}
	f.svc.SetPublisher(pub)

	room, _, _ := f.svc.GetOrCreateRoom(1, 1, 2)

	const senders = 8
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sender := uint(1 + i%2)
			if _, err := f.svc.SendMessage(room.ID, sender, "", fmt.Sprintf("nachricht %d", i)); err != nil {
				t.Errorf("send %d failed: %v", i, err)
			}
		}(i)
	}
	wg.Wait()

	msgs, err := f.svc.ListMessages(room.ID, 1)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	frames := pub.recorded()
	if len(frames) != len(msgs) {
		t.Fatalf("published %d frames for %d stored messages", len(frames), len(msgs))
	}
	for i := range msgs {
		if frames[i].payload.MessageID != msgs[i].ID {
			t.Errorf("frame %d carries message %d, storage order has %d", i, frames[i].payload.MessageID, msgs[i].ID)
		}
	}
}

// Walks the conversation the platform cares about end to end: both sides
// resolve the same room, unread counters move with sends and mark-read, and
// every append reaches the subscribers.
func TestConversationRoundTrip(t *testing.T) {
	th := testutil.NewTestHelper(t)
	rooms := NewMockRoomRepository()
	messages := NewMockMessageRepository(rooms)
	users := NewMockUserRepository()
	jobs := NewMockJobRepository()

	users.Add(th.CreateTestUser(1, "kunde", models.RoleCustomer))
	users.Add(th.CreateTestUser(2, "meister", models.RoleTradesperson))
	jobs.Add(th.CreateTestJob(1, 1, "Bad renovieren"))

	svc := NewChatService(rooms, messages, users, jobs, nil)
	pub := &recordingPublisher{}
	svc.SetPublisher(pub)

	// The tradesperson opens the conversation; the customer lands in the
	// same room later.
	roomT, createdT, err := svc.GetOrCreateRoom(1, 2, 1)
	if err != nil {
		t.Fatalf("tradesperson get-or-create failed: %v", err)
	}
	roomC, createdC, err := svc.GetOrCreateRoom(1, 1, 2)
	if err != nil {
		t.Fatalf("customer get-or-create failed: %v", err)
	}
	if !createdT || createdC || roomT.ID != roomC.ID {
		t.Fatalf("room not shared: created=%v/%v ids=%d/%d", createdT, createdC, roomT.ID, roomC.ID)
	}

	if _, err := svc.SendMessage(roomT.ID, 2, "", "Hallo, ich hätte Zeit nächste Woche."); err != nil {
		t.Fatalf("tradesperson send failed: %v", err)
	}
	stored, _ := rooms.FindByID(roomT.ID)
	if stored.CustomerUnread != 1 {
		t.Errorf("customer unread = %d, want 1", stored.CustomerUnread)
	}

	if err := svc.MarkRead(roomT.ID, 1); err != nil {
		t.Fatalf("mark read failed: %v", err)
	}
	stored, _ = rooms.FindByID(roomT.ID)
	if stored.CustomerUnread != 0 {
		t.Errorf("customer unread = %d after mark read, want 0", stored.CustomerUnread)
	}

	if _, err := svc.SendMessage(roomT.ID, 1, "", "Danke, passt!"); err != nil {
		t.Fatalf("customer send failed: %v", err)
	}

	frames := pub.recorded()
	if len(frames) != 2 {
		t.Fatalf("expected 2 published frames, got %d", len(frames))
	}
	if frames[0].payload.SenderID != 2 || frames[1].payload.SenderID != 1 {
		t.Errorf("frames out of order: %+v", frames)
	}

	rows, err := svc.ListRooms(2)
	if err != nil {
		t.Fatalf("list rooms failed: %v", err)
	}
	if len(rows) != 1 || rows[0].UnreadCount != 1 {
		t.Errorf("tradesperson room list wrong: %+v", rows)
	}
	if rows[0].LastMessageContent == nil || *rows[0].LastMessageContent != "Danke, passt!" {
		t.Errorf("last message preview = %v", rows[0].LastMessageContent)
	}
}
