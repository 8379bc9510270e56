// Package viz orchestrates visualization renders: it snapshots the canvas,
// classifies the change against the last render, submits full or incremental
// requests to the backend, polls the generation job, and maintains the
// per-session undo/redo history.
package viz

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roomstage/roomstage/internal/canvas"
	"github.com/roomstage/roomstage/internal/retry"
	"github.com/roomstage/roomstage/internal/session"
	"github.com/roomstage/roomstage/pkg/models"
)

var (
	// ErrGenerationFailed is returned when the backend reports a terminal
	// failure for a render job.
	ErrGenerationFailed = errors.New("viz: generation failed")
	// ErrPollTimeout is returned when a job does not reach a terminal state
	// within the configured window.
	ErrPollTimeout = errors.New("viz: generation poll timed out")
)

// Backend is the subset of the API client the workflow needs.
type Backend interface {
	SubmitRender(ctx context.Context, req *models.RenderRequest) (*models.GenerationJob, error)
	JobStatus(ctx context.Context, jobID string) (*models.GenerationJob, error)
	JobResult(ctx context.Context, jobID string) (*models.RenderResult, error)
}

// Config bounds the render workflow.
type Config struct {
	PollInterval time.Duration
	PollTimeout  time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = 2 * time.Second
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = 3 * time.Minute
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 2 * time.Second
	}
	return c
}

// Runtime is the in-memory state for one active design session.
type Runtime struct {
	SessionID string
	RoomPhoto string
	Canvas    *canvas.Canvas
	History   *canvas.History
}

// Manager owns session runtimes and drives the render workflow.
type Manager struct {
	backend Backend
	store   session.Store
	hub     *canvas.Hub
	metrics *canvas.Metrics
	logger  *slog.Logger
	cfg     Config

	mu       sync.Mutex
	runtimes map[string]*Runtime
}

// NewManager creates a visualization manager.
func NewManager(backend Backend, store session.Store, hub *canvas.Hub, logger *slog.Logger, cfg Config) *Manager {
	if store == nil {
		store = session.NewMemoryStore()
	}
	if hub == nil {
		hub = canvas.NewHub()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		backend:  backend,
		store:    store,
		hub:      hub,
		metrics:  canvas.NewMetrics(),
		logger:   logger.With("component", "viz"),
		cfg:      cfg.withDefaults(),
		runtimes: map[string]*Runtime{},
	}
}

// Hub returns the realtime hub used for canvas broadcasts.
func (m *Manager) Hub() *canvas.Hub {
	return m.hub
}

// Store returns the session store.
func (m *Manager) Store() session.Store {
	return m.store
}

// Metrics returns the canvas metrics registry.
func (m *Manager) Metrics() *canvas.Metrics {
	return m.metrics
}

// Runtime returns the runtime for a session, rebuilding it from the persisted
// snapshot when the session is not yet resident.
func (m *Manager) Runtime(ctx context.Context, sessionID string) (*Runtime, error) {
	m.mu.Lock()
	if rt, ok := m.runtimes[sessionID]; ok {
		m.mu.Unlock()
		return rt, nil
	}
	m.mu.Unlock()

	stored, err := m.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		SessionID: stored.ID,
		RoomPhoto: stored.RoomPhoto,
		Canvas:    canvas.New(),
		History:   canvas.NewHistory(),
	}
	if snap, err := m.store.GetSnapshot(ctx, sessionID); err == nil {
		items, err := canvas.DecodeItems(snap.ItemsJSON)
		if err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		rt.Canvas.SetItems(items)
		if len(snap.HistoryJSON) > 0 {
			var ser canvas.SerializableHistory
			if err := json.Unmarshal(snap.HistoryJSON, &ser); err != nil {
				return nil, fmt.Errorf("decode history: %w", err)
			}
			rt.History = canvas.HistoryFromSerializable(ser)
		}
	} else if !errors.Is(err, session.ErrNotFound) {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.runtimes[sessionID]; ok {
		return existing, nil
	}
	m.runtimes[sessionID] = rt
	return rt, nil
}

// Evict drops a resident runtime, persisting it first.
func (m *Manager) Evict(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	rt, ok := m.runtimes[sessionID]
	delete(m.runtimes, sessionID)
	m.mu.Unlock()
	if !ok {
		return nil
	}
	return m.Persist(ctx, rt)
}

// Persist writes the runtime's canvas and history back to the store.
func (m *Manager) Persist(ctx context.Context, rt *Runtime) error {
	items, err := canvas.EncodeItems(rt.Canvas.Items())
	if err != nil {
		return fmt.Errorf("encode items: %w", err)
	}
	history, err := json.Marshal(rt.History.ToSerializable())
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := m.store.UpsertSnapshot(ctx, &session.Snapshot{
		SessionID:   rt.SessionID,
		ItemsJSON:   items,
		HistoryJSON: history,
	}); err != nil {
		return err
	}
	return m.store.TouchSession(ctx, rt.SessionID, time.Now())
}

// Broadcast publishes a canvas event for the session's stream subscribers.
func (m *Manager) Broadcast(sessionID, msgType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	m.hub.Broadcast(canvas.StreamMessage{
		Type:      msgType,
		SessionID: sessionID,
		Payload:   data,
		Timestamp: time.Now(),
	})
}

// Visualize runs one render cycle for the session and returns the resulting
// history entry with the change classification that produced it. When the
// staged state matches the last render, the current entry is returned without
// a backend call.
func (m *Manager) Visualize(ctx context.Context, rt *Runtime) (*canvas.HistoryEntry, canvas.Change, error) {
	staged := rt.Canvas.Snapshot()
	last := rt.History.Current().Snapshot()
	change := canvas.Detect(staged, last)

	if change.Kind == canvas.ChangeNone {
		return rt.History.Current(), change, nil
	}
	m.metrics.RecordRender(change.Kind)

	req := buildRequest(rt, staged, change)
	job, err := m.submit(ctx, req)
	if err != nil {
		return nil, change, err
	}

	result, err := m.await(ctx, job)
	if err != nil {
		return nil, change, err
	}

	entry := entryFromSnapshot(staged, result)
	rt.History.Push(entry)
	m.Broadcast(rt.SessionID, "render", map[string]any{
		"kind":     string(change.Kind),
		"mode":     string(req.Mode),
		"job_id":   result.JobID,
		"mime":     result.MimeType,
		"rendered": entry.RenderedAt,
	})

	if err := m.Persist(ctx, rt); err != nil {
		m.logger.Warn("persist after render failed", "session_id", rt.SessionID, "error", err)
	}
	return entry, change, nil
}

// buildRequest shapes the backend request for the classified change.
func buildRequest(rt *Runtime, staged *canvas.Snapshot, change canvas.Change) *models.RenderRequest {
	req := &models.RenderRequest{
		SessionID: rt.SessionID,
		Mode:      models.RenderModeFull,
		Selection: selectionFromSnapshot(staged, rt.RoomPhoto),
	}
	if change.Kind.Incremental() {
		req.Mode = models.RenderModeEdit
		for _, it := range change.NewProducts {
			req.Added = append(req.Added, models.RenderProduct{
				Product:  *it.Product,
				Quantity: it.Quantity,
			})
		}
		req.Removed = append(req.Removed, change.RemovedProductIDs...)
	}
	return req
}

func selectionFromSnapshot(snap *canvas.Snapshot, roomPhoto string) models.RenderSelection {
	sel := models.RenderSelection{
		RoomPhoto: roomPhoto,
		WallColor: snap.WallColor,
		Texture:   snap.Texture,
		FloorTile: snap.FloorTile,
	}
	for _, it := range snap.Products {
		sel.Products = append(sel.Products, models.RenderProduct{
			Product:  *it.Product,
			Quantity: it.Quantity,
		})
	}
	return sel
}

func entryFromSnapshot(staged *canvas.Snapshot, result *models.RenderResult) *canvas.HistoryEntry {
	entry := &canvas.HistoryEntry{
		Image:      result.Image,
		MimeType:   result.MimeType,
		Products:   staged.Products,
		ProductIDs: map[string]struct{}{},
		Quantities: map[string]int{},
		WallColor:  staged.WallColor,
		RenderedAt: time.Now().UTC(),
	}
	for id := range staged.ProductIDs {
		entry.ProductIDs[id] = struct{}{}
	}
	for id, qty := range staged.Quantities {
		entry.Quantities[id] = qty
	}
	return entry
}

// submit sends the render request with bounded fixed-delay retries. Client
// errors are permanent; only transport and 5xx failures retry.
func (m *Manager) submit(ctx context.Context, req *models.RenderRequest) (*models.GenerationJob, error) {
	cfg := retry.Fixed(m.cfg.MaxRetries, m.cfg.RetryDelay)
	job, result := retry.DoWithValue(ctx, cfg, func() (*models.GenerationJob, error) {
		job, err := m.backend.SubmitRender(ctx, req)
		if err != nil {
			var tmp interface{ Temporary() bool }
			if errors.As(err, &tmp) && !tmp.Temporary() {
				return nil, retry.Permanent(err)
			}
			return nil, err
		}
		return job, nil
	})
	if result.Err != nil {
		m.logger.Error("render submit failed", "session_id", req.SessionID,
			"attempts", result.Attempts, "error", result.Err)
		return nil, result.Err
	}
	return job, nil
}

// await polls the job until it reaches a terminal state, then fetches the
// rendered image. Cancellation stops polling immediately.
func (m *Manager) await(ctx context.Context, job *models.GenerationJob) (*models.RenderResult, error) {
	if job.Status == models.JobFailed {
		return nil, fmt.Errorf("%w: %s", ErrGenerationFailed, job.Error)
	}
	deadline := time.NewTimer(m.cfg.PollTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	current := job
	for !current.Status.Terminal() {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, ErrPollTimeout
		case <-ticker.C:
		}
		updated, err := m.backend.JobStatus(ctx, job.ID)
		if err != nil {
			m.logger.Warn("job status poll failed", "job_id", job.ID, "error", err)
			continue
		}
		current = updated
	}

	if current.Status == models.JobFailed {
		return nil, fmt.Errorf("%w: %s", ErrGenerationFailed, current.Error)
	}
	return m.backend.JobResult(ctx, job.ID)
}

// Undo steps the history back and restores the canvas to the returned
// snapshot. Returns the active entry, or nil when history is empty.
func (m *Manager) Undo(ctx context.Context, rt *Runtime) (*canvas.HistoryEntry, error) {
	entry := rt.History.Undo()
	if entry == nil {
		return nil, nil
	}
	m.metrics.RecordHistoryMove("undo")
	m.restoreCanvas(rt, entry)
	m.Broadcast(rt.SessionID, "undo", map[string]any{"rendered": entry.RenderedAt})
	if err := m.Persist(ctx, rt); err != nil {
		m.logger.Warn("persist after undo failed", "session_id", rt.SessionID, "error", err)
	}
	return entry, nil
}

// Redo steps the history forward and restores the canvas accordingly.
func (m *Manager) Redo(ctx context.Context, rt *Runtime) (*canvas.HistoryEntry, error) {
	entry := rt.History.Redo()
	if entry == nil {
		return nil, nil
	}
	m.metrics.RecordHistoryMove("redo")
	m.restoreCanvas(rt, entry)
	m.Broadcast(rt.SessionID, "redo", map[string]any{"rendered": entry.RenderedAt})
	if err := m.Persist(ctx, rt); err != nil {
		m.logger.Warn("persist after redo failed", "session_id", rt.SessionID, "error", err)
	}
	return entry, nil
}

// restoreCanvas rewrites the product and wall-color state from a history
// entry. Texture and floor tile are not tracked by history entries, so they
// are left as staged.
func (m *Manager) restoreCanvas(rt *Runtime, entry *canvas.HistoryEntry) {
	products := make([]models.Product, 0, len(entry.Products))
	for _, it := range entry.Products {
		products = append(products, *it.Product)
	}
	rt.Canvas.SetProducts(products, entry.Quantities)
	rt.Canvas.SetWallColor(entry.WallColor)
}
