package testutil

import (
	"testing"
	"time"

	"github.com/handwerkly/chat-backend/internal/models"
)

// TestHelper provides utility functions for tests
type TestHelper struct {
	t *testing.T
}

func NewTestHelper(t *testing.T) *TestHelper {
	return &TestHelper{t: t}
}

// CreateTestUser creates a test user with default values
func (h *TestHelper) CreateTestUser(id uint, username, role string) *models.User {
	if id == 0 {
		id = 1
	}
	if username == "" {
		username = "testuser"
	}
	if role == "" {
		role = models.RoleCustomer
	}

	return &models.User{
		ID:        id,
		Username:  username,
		FullName:  "Test User",
		Role:      role,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// CreateTestJob creates a test job owned by customerID
func (h *TestHelper) CreateTestJob(id uint, customerID uint, title string) *models.Job {
	if id == 0 {
		id = 1
	}
	if customerID == 0 {
		customerID = 1
	}
	if title == "" {
		title = "Fix the kitchen sink"
	}

	return &models.Job{
		ID:         id,
		Title:      title,
		CustomerID: customerID,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
}

// CreateTestRoom creates a test chat room
func (h *TestHelper) CreateTestRoom(id, jobID, customerID, tradespersonID uint) *models.ChatRoom {
	if id == 0 {
		id = 1
	}

	return &models.ChatRoom{
		ID:             id,
		JobID:          jobID,
		CustomerID:     customerID,
		TradespersonID: tradespersonID,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
}
