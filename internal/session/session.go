// Package session persists per-client UI state between runs: which
// conversation is open, locally retired reports, per-conversation read
// markers, and unsent drafts. Writes are debounced and guarded by a
// sidecar flock so concurrent instances sharing a data dir do not
// corrupt the file.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"
)

const (
	CurrentVersion = 1

	defaultDebounce = 1 * time.Second
)

type State struct {
	Version            int               `json:"version"`
	OpenConversationID string            `json:"open_conversation_id,omitempty"` // conversation open in this session, restore target
	HiddenReports      []string          `json:"hidden_reports,omitempty"`       // report IDs retired locally by an admin
	ReadMarkers        map[string]string `json:"read_markers,omitempty"`         // conversation ID -> last-read message ID
	Drafts             map[string]string `json:"drafts,omitempty"`               // conversation ID -> unsent body
	LastConversation   string            `json:"last_conversation,omitempty"`    // last conversation viewed (for restore)
}

type Manager struct {
	path     string
	lockPath string

	mu       sync.Mutex
	state    State
	dirty    bool
	timer    *time.Timer
	debounce time.Duration
}

func New(path string) *Manager {
	path = strings.TrimSpace(path)
	return &Manager{
		path:     path,
		lockPath: path + ".lock",
		state: State{
			Version:     CurrentVersion,
			ReadMarkers: make(map[string]string),
			Drafts:      make(map[string]string),
		},
		debounce: defaultDebounce,
	}
}

func (m *Manager) Path() string { return m.path }

func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.path == "" {
		return nil
	}

	loaded, err := m.loadLocked()
	if err != nil {
		return err
	}
	// The open conversation never survives a restart; only the restore
	// hint does.
	loaded.OpenConversationID = ""
	m.state = loaded
	m.dirty = false
	return nil
}

func (m *Manager) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneState(m.state)
}

// OpenConversation returns the conversation currently open in this
// session, or "" when the user is looking at the inbox.
func (m *Manager) OpenConversation() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.OpenConversationID
}

func (m *Manager) SetOpenConversation(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id = strings.TrimSpace(id)
	if m.state.OpenConversationID == id {
		return
	}
	m.state.OpenConversationID = id
	if id != "" {
		m.state.LastConversation = id
	}
	m.markDirtyLocked()
}

func (m *Manager) LastConversation() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.LastConversation
}

// HideReport retires a report from this client's admin listing. The
// report itself is untouched on the backend.
func (m *Manager) HideReport(reportID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	reportID = strings.TrimSpace(reportID)
	if reportID == "" {
		return
	}
	for _, id := range m.state.HiddenReports {
		if id == reportID {
			return
		}
	}
	m.state.HiddenReports = append(m.state.HiddenReports, reportID)
	sort.Strings(m.state.HiddenReports)
	m.markDirtyLocked()
}

func (m *Manager) ReportHidden(reportID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.state.HiddenReports {
		if id == reportID {
			return true
		}
	}
	return false
}

func (m *Manager) ClearHiddenReports() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.state.HiddenReports) == 0 {
		return
	}
	m.state.HiddenReports = nil
	m.markDirtyLocked()
}

func (m *Manager) ReadMarker(conversationID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return ""
	}
	return strings.TrimSpace(m.state.ReadMarkers[conversationID])
}

func (m *Manager) SetReadMarker(conversationID, messageID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conversationID = strings.TrimSpace(conversationID)
	messageID = strings.TrimSpace(messageID)
	if conversationID == "" || messageID == "" {
		return
	}
	if m.state.ReadMarkers == nil {
		m.state.ReadMarkers = make(map[string]string)
	}
	m.state.ReadMarkers[conversationID] = messageID
	m.markDirtyLocked()
}

func (m *Manager) Draft(conversationID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" || len(m.state.Drafts) == 0 {
		return "", false
	}
	body, ok := m.state.Drafts[conversationID]
	return body, ok
}

func (m *Manager) SetDraft(conversationID, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return
	}
	if m.state.Drafts == nil {
		m.state.Drafts = make(map[string]string)
	}
	if strings.TrimSpace(body) == "" {
		if _, ok := m.state.Drafts[conversationID]; !ok {
			return
		}
		delete(m.state.Drafts, conversationID)
		m.markDirtyLocked()
		return
	}
	m.state.Drafts[conversationID] = body
	m.markDirtyLocked()
}

func (m *Manager) Close() error {
	m.mu.Lock()
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	needsSave := m.dirty
	m.mu.Unlock()
	if !needsSave {
		return nil
	}
	return m.SaveNow()
}

func (m *Manager) SaveNow() error {
	m.mu.Lock()
	if m.path == "" {
		m.mu.Unlock()
		return nil
	}
	state := cloneState(m.state)
	m.dirty = false
	m.mu.Unlock()

	state.Version = CurrentVersion
	// OpenConversationID is session-scoped only: a crashed instance must
	// not leave a conversation "open" on disk and suppress unread bumps
	// for the next run.
	state.OpenConversationID = ""

	if err := withFileLock(m.lockPath, func() error {
		return writeAtomicJSON(m.path, state)
	}); err != nil {
		m.mu.Lock()
		m.dirty = true
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *Manager) markDirtyLocked() {
	m.dirty = true
	if m.path == "" {
		return
	}
	if m.timer == nil {
		m.timer = time.AfterFunc(m.debounce, func() {
			_ = m.SaveNow()
		})
		return
	}
	_ = m.timer.Reset(m.debounce)
}

func (m *Manager) loadLocked() (State, error) {
	var out State
	if err := withFileLock(m.lockPath, func() error {
		payload, err := os.ReadFile(m.path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				out = State{Version: CurrentVersion}
				return nil
			}
			return err
		}
		if len(payload) == 0 {
			out = State{Version: CurrentVersion}
			return nil
		}
		return json.Unmarshal(payload, &out)
	}); err != nil {
		return State{}, err
	}

	if out.Version <= 0 {
		out.Version = CurrentVersion
	}
	if out.ReadMarkers == nil {
		out.ReadMarkers = make(map[string]string)
	}
	if out.Drafts == nil {
		out.Drafts = make(map[string]string)
	}
	return out, nil
}

func withFileLock(lockPath string, fn func() error) error {
	if strings.TrimSpace(lockPath) == "" {
		return fn()
	}
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		return fmt.Errorf("lock %s: %w", lockPath, err)
	}
	defer func() {
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
	}()
	return fn()
}

func writeAtomicJSON(path string, state State) error {
	payload, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func cloneState(state State) State {
	out := state
	if state.ReadMarkers != nil {
		out.ReadMarkers = make(map[string]string, len(state.ReadMarkers))
		for k, v := range state.ReadMarkers {
			out.ReadMarkers[k] = v
		}
	}
	if state.Drafts != nil {
		out.Drafts = make(map[string]string, len(state.Drafts))
		for k, v := range state.Drafts {
			out.Drafts[k] = v
		}
	}
	if len(state.HiddenReports) > 0 {
		out.HiddenReports = append([]string(nil), state.HiddenReports...)
	}
	return out
}
