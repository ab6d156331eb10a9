package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/domain/aggregate"
	"github.com/Wenrh2004/judge-sandbox/internal/sandbox/domain/aggregate/vo"
	"github.com/Wenrh2004/judge-sandbox/pkg/log"
)

var ErrEmptyRoot = errors.New("[workspace.NewManager]workspace root is empty")

// Manager creates and removes per-submission directories under one root.
type Manager struct {
	root   string
	logger *log.Logger
}

// NewManager roots workspaces at app.sandbox.workspace_root.
func NewManager(conf *viper.Viper, logger *log.Logger) (*Manager, error) {
	return NewManagerWithRoot(conf.GetString("app.sandbox.workspace_root"), logger)
}

func NewManagerWithRoot(root string, logger *log.Logger) (*Manager, error) {
	if root == "" {
		return nil, ErrEmptyRoot
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("[workspace.NewManager]resolve %s: %w", root, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("[workspace.NewManager]create root: %w", err)
	}
	return &Manager{root: abs, logger: logger}, nil
}

// Root is the absolute directory every workspace lives under.
func (m *Manager) Root() string {
	return m.root
}

// Create makes a fresh directory and writes code into it under the profile's file name.
func (m *Manager) Create(profile *vo.LanguageProfile, code string) (*aggregate.Workspace, error) {
	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return nil, fmt.Errorf("[Manager.Create]create root: %w", err)
	}
	id := uuid.NewString()
	dir := filepath.Join(m.root, id)
	if err := os.Mkdir(dir, 0o755); err != nil {
		return nil, fmt.Errorf("[Manager.Create]create workspace: %w", err)
	}
	ws := &aggregate.Workspace{
		ID:         id,
		Dir:        dir,
		SourcePath: filepath.Join(dir, profile.FileName),
	}
	// Go strings are UTF-8 already.
	if err := os.WriteFile(ws.SourcePath, []byte(code), 0o644); err != nil {
		m.Destroy(ws)
		return nil, fmt.Errorf("[Manager.Create]write source: %w", err)
	}
	m.logger.Debug("[Manager.Create]workspace created", zap.String("workspace", id), zap.String("language", profile.Name))
	return ws, nil
}

// Destroy removes the workspace directory. Nil or already removed workspaces count as success.
func (m *Manager) Destroy(ws *aggregate.Workspace) bool {
	if ws == nil || ws.Dir == "" {
		return true
	}
	if filepath.Dir(ws.Dir) != m.root {
		m.logger.Error("[Manager.Destroy]refusing to remove directory outside the workspace root", zap.String("dir", ws.Dir))
		return false
	}
	if err := os.RemoveAll(ws.Dir); err != nil {
		m.logger.Error("[Manager.Destroy]failed to remove workspace", zap.String("workspace", ws.ID), zap.Error(err))
		return false
	}
	return true
}
