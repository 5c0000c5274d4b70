package verbosity

import (
	"context"
	"fmt"

	"github.com/dgallion1/headfix/internal/pathstore"
)

// PathstoreStore keeps settings in a remote pathstore service under a prefix.
type PathstoreStore struct {
	client *pathstore.Client
	prefix string
}

// NewPathstoreStore keeps settings under prefix in the pathstore service.
func NewPathstoreStore(client *pathstore.Client, prefix string) *PathstoreStore {
	return &PathstoreStore{client: client, prefix: prefix}
}

func (s *PathstoreStore) path(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func (s *PathstoreStore) Get(ctx context.Context, key string) (string, bool, error) {
	node, err := s.client.GetNode(ctx, s.path(key))
	if err != nil {
		return "", false, err
	}
	if node == nil || node.Value == nil {
		return "", false, nil
	}
	switch v := node.Value.(type) {
	case string:
		return v, true, nil
	case bool:
		return fmt.Sprint(v), true, nil
	}
	return "", false, fmt.Errorf("setting %s: unexpected value type %T", key, node.Value)
}

func (s *PathstoreStore) Set(ctx context.Context, key, value string) error {
	return s.client.PutNode(ctx, s.path(key), pathstore.NodeRequest{
		Value:      value,
		MemoryType: "setting",
		Source:     "headfix",
	})
}

func (s *PathstoreStore) Remove(ctx context.Context, key string) error {
	return s.client.DeleteNode(ctx, s.path(key))
}
