package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/homesage/homesage/pkg/models"
	"github.com/homesage/homesage/pkg/persistence"
)

const dirPerm = 0o755

func (fp *Persistence) conversationsDir() string {
	return filepath.Join(fp.root, "conversations")
}

func (fp *Persistence) conversationPath(id string) string {
	return filepath.Join(fp.conversationsDir(), id+".json")
}

// Conversations returns every stored conversation, most recently updated first.
func (fp *Persistence) Conversations(ctx context.Context) ([]*models.Conversation, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if _, err := os.Stat(fp.conversationsDir()); os.IsNotExist(err) {
		return []*models.Conversation{}, nil
	}

	root := os.DirFS(fp.conversationsDir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation files: %w", err)
	}

	conversations := make([]*models.Conversation, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		id := strings.TrimSuffix(file, ".json")

		conversation, err := fp.readConversation(id)
		if err != nil {
			return nil, persistence.NewConversationError("List", id, err)
		}

		conversations = append(conversations, conversation)
	}

	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].UpdatedAt.After(conversations[j].UpdatedAt)
	})

	return conversations, nil
}

// ConversationByID retrieves a conversation by its ID from the file system.
func (fp *Persistence) ConversationByID(ctx context.Context, id string) (*models.Conversation, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	conversation, err := fp.readConversation(id)
	if err != nil {
		return nil, persistence.NewConversationError("GetByID", id, err)
	}

	return conversation, nil
}

// SaveConversation writes a conversation to the file system.
func (fp *Persistence) SaveConversation(ctx context.Context, conversation *models.Conversation) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if err := os.MkdirAll(fp.conversationsDir(), dirPerm); err != nil {
		return persistence.NewConversationError("Save", conversation.ID, err)
	}

	data, err := json.MarshalIndent(conversation, "", "  ")
	if err != nil {
		return persistence.NewConversationError("Save", conversation.ID, err)
	}

	if err := os.WriteFile(fp.conversationPath(conversation.ID), data, 0o600); err != nil {
		return persistence.NewConversationError("Save", conversation.ID, err)
	}

	return nil
}

// DeleteConversation removes a conversation from the file system.
func (fp *Persistence) DeleteConversation(ctx context.Context, id string) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	err := os.Remove(fp.conversationPath(id))
	if os.IsNotExist(err) {
		return persistence.NewConversationError("Delete", id, persistence.ErrConversationNotFound)
	}

	if err != nil {
		return persistence.NewConversationError("Delete", id, err)
	}

	return nil
}

func (fp *Persistence) readConversation(id string) (*models.Conversation, error) {
	data, err := os.ReadFile(fp.conversationPath(id))
	if os.IsNotExist(err) {
		return nil, persistence.ErrConversationNotFound
	}

	if err != nil {
		return nil, err
	}

	var conversation models.Conversation
	if err := json.Unmarshal(data, &conversation); err != nil {
		return nil, fmt.Errorf("failed to parse conversation file: %w", err)
	}

	return &conversation, nil
}
