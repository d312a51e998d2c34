package memory

import (
	"context"
	"sync"

	"github.com/edel-social/edel-server/push"
)

type memory struct {
	sync.RWMutex

	// Map of userID -> map of appInstallID -> Token
	tokens map[string]map[string]push.Token
}

func NewInMemory() push.TokenStore {
	return &memory{
		tokens: make(map[string]map[string]push.Token),
	}
}

func (m *memory) reset() {
	m.Lock()
	defer m.Unlock()

	m.tokens = make(map[string]map[string]push.Token)
}

func (m *memory) GetTokens(_ context.Context, userID string) ([]push.Token, error) {
	m.RLock()
	defer m.RUnlock()

	userTokens, ok := m.tokens[userID]
	if !ok {
		return nil, nil
	}

	tokens := make([]push.Token, 0, len(userTokens))
	for _, token := range userTokens {
		tokens = append(tokens, token)
	}

	return tokens, nil
}

func (m *memory) GetTokensBatch(_ context.Context, userIDs ...string) ([]push.Token, error) {
	m.RLock()
	defer m.RUnlock()

	var tokens []push.Token
	for _, userID := range userIDs {
		for _, token := range m.tokens[userID] {
			tokens = append(tokens, token)
		}
	}

	return tokens, nil
}

func (m *memory) AddToken(_ context.Context, userID, appInstallID string, tokenType push.TokenType, token string) error {
	m.Lock()
	defer m.Unlock()

	userTokens, ok := m.tokens[userID]
	if !ok {
		userTokens = make(map[string]push.Token)
		m.tokens[userID] = userTokens
	}

	userTokens[appInstallID] = push.Token{
		UserID:       userID,
		Type:         tokenType,
		Token:        token,
		AppInstallID: appInstallID,
	}

	return nil
}

func (m *memory) DeleteToken(_ context.Context, tokenType push.TokenType, token string) error {
	m.Lock()
	defer m.Unlock()

	// Need to scan all users and devices to find matching token.
	for _, userTokens := range m.tokens {
		for appInstallID, existing := range userTokens {
			if existing.Type == tokenType && existing.Token == token {
				delete(userTokens, appInstallID)
			}
		}
	}

	return nil
}

func (m *memory) ClearTokens(_ context.Context, userID string) error {
	m.Lock()
	defer m.Unlock()

	delete(m.tokens, userID)
	return nil
}
