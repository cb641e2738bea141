package assets

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"partvault/internal/assetstore"
	"partvault/internal/models"
	"partvault/internal/principal"
	"partvault/internal/store"
	"partvault/internal/ws"
)

// slotPlaceholderName keeps an otherwise empty view slot visible in object
// listings. Placeholders are hidden from folder listings.
const slotPlaceholderName = ".emptyFolderPlaceholder"

// ensureSlotConcurrency bounds the parallel slot probes in EnsureViewSlots.
const ensureSlotConcurrency = 3

// ClientFactory hands out storage clients bound to one principal. Both the
// in-memory store and the S3 store satisfy it.
type ClientFactory interface {
	Client(principalID string) assetstore.Client
}

// Manager is the asset lifecycle service: it resolves the session to a folder
// key, validates and names uploads, talks to object storage through a
// principal-bound client, and keeps the denormalized main-image URL on part
// records in sync.
type Manager struct {
	parts    *store.Store
	clients  ClientFactory
	resolver *principal.Resolver
	hub      *ws.Hub
}

// NewManager wires the asset service. hub may be nil; mutation events are then
// dropped.
func NewManager(parts *store.Store, clients ClientFactory, resolver *principal.Resolver, hub *ws.Hub) *Manager {
	if resolver == nil {
		resolver = principal.NewResolver(principal.ModeUserID)
	}
	return &Manager{parts: parts, clients: clients, resolver: resolver, hub: hub}
}

// FolderKey resolves the storage folder for a session.
func (m *Manager) FolderKey(sess principal.Session) (string, error) {
	return m.resolver.FolderKey(sess)
}

func (m *Manager) folderClient(sess principal.Session) (string, assetstore.Client, error) {
	folder, err := m.resolver.FolderKey(sess)
	if err != nil {
		return "", nil, err
	}
	// The client is bound to the folder key, not the raw user ID: the ownership
	// rule compares the first path segment against the bound principal, and in
	// display-slug mode the slug IS the principal identity the policy sees.
	return folder, m.clients.Client(folder), nil
}

func (m *Manager) publish(evt ws.Event) {
	if m.hub != nil {
		m.hub.Publish(evt)
	}
}

// Upload validates and stores an unscoped asset in the session's folder. The
// object path embeds a fresh ULID, so repeated uploads of the same filename
// never collide.
func (m *Manager) Upload(ctx context.Context, sess principal.Session, cand Candidate, body io.Reader) (models.AssetUploadResponse, error) {
	if err := Validate(cand); err != nil {
		return models.AssetUploadResponse{}, err
	}
	folder, client, err := m.folderClient(sess)
	if err != nil {
		return models.AssetUploadResponse{}, err
	}
	path, err := ObjectPath(folder, cand.Ext())
	if err != nil {
		return models.AssetUploadResponse{}, err
	}
	stored, err := client.Upload(ctx, path, body, assetstore.UploadOptions{ContentType: cand.ContentType})
	if err != nil {
		return models.AssetUploadResponse{}, err
	}
	m.publish(ws.Event{Type: ws.EventAssetUploaded, Folder: folder, Payload: map[string]string{"path": stored}})
	return models.AssetUploadResponse{Path: stored, PublicURL: client.PublicURL(stored)}, nil
}

// UploadView validates and stores an asset into the named view slot of the
// session's folder, replacing whatever the slot held. partSlug must name a
// part owned by the session; an upload to the "main" slot refreshes that
// part's cached main-image URL.
func (m *Manager) UploadView(ctx context.Context, sess principal.Session, partSlug string, view ViewType, cand Candidate, body io.Reader) (models.AssetUploadResponse, error) {
	if err := Validate(cand); err != nil {
		return models.AssetUploadResponse{}, err
	}
	part, err := m.parts.GetPart(ctx, partSlug)
	if err != nil {
		return models.AssetUploadResponse{}, err
	}
	if part.OwnerID != sess.UserID {
		return models.AssetUploadResponse{}, store.ErrPartOwnedByAnother
	}
	folder, client, err := m.folderClient(sess)
	if err != nil {
		return models.AssetUploadResponse{}, err
	}
	path, err := ViewScopedPath(folder, view, cand.Ext())
	if err != nil {
		return models.AssetUploadResponse{}, err
	}
	stored, err := client.Upload(ctx, path, body, assetstore.UploadOptions{
		Upsert:      true,
		ContentType: cand.ContentType,
	})
	if err != nil {
		return models.AssetUploadResponse{}, err
	}
	// A different extension upserts to a different path, so the previous object
	// would survive the replace. Sweep the slot down to the stored object.
	if err := m.sweepSlot(ctx, client, folder, view, stored); err != nil {
		return models.AssetUploadResponse{}, fmt.Errorf("sweep view slot: %w", err)
	}
	publicURL := client.PublicURL(stored)
	if view == ViewMain {
		if err := m.parts.SetMainImageURL(ctx, partSlug, publicURL); err != nil {
			return models.AssetUploadResponse{}, fmt.Errorf("update main image url: %w", err)
		}
		m.publish(ws.Event{Type: ws.EventPartUpdated, Folder: folder, Payload: map[string]string{"slug": partSlug}})
	}
	m.publish(ws.Event{Type: ws.EventAssetUploaded, Folder: folder, Payload: map[string]string{"path": stored, "view": string(view)}})
	return models.AssetUploadResponse{Path: stored, PublicURL: publicURL}, nil
}

// sweepSlot removes every object in a view slot except the one to keep and
// the folder placeholder, so the slot holds at most one live image.
func (m *Manager) sweepSlot(ctx context.Context, client assetstore.Client, folder string, view ViewType, keep string) error {
	prefix := fmt.Sprintf("%s/%s_jpg", folder, view)
	infos, err := client.List(ctx, prefix, assetstore.ListOptions{})
	if err != nil {
		return err
	}
	stale := make([]string, 0, len(infos))
	for _, info := range infos {
		if info.Path == keep || info.Name == slotPlaceholderName {
			continue
		}
		stale = append(stale, info.Path)
	}
	if len(stale) == 0 {
		return nil
	}
	_, err = client.Remove(ctx, stale)
	return err
}

// List returns the session's folder contents, placeholders excluded, each item
// enriched with its public URL.
func (m *Manager) List(ctx context.Context, sess principal.Session, opts assetstore.ListOptions) (models.AssetListResponse, error) {
	folder, client, err := m.folderClient(sess)
	if err != nil {
		return models.AssetListResponse{}, err
	}
	infos, err := client.List(ctx, folder, opts)
	if err != nil {
		return models.AssetListResponse{}, err
	}
	items := make([]models.Asset, 0, len(infos))
	for _, info := range infos {
		if strings.HasPrefix(info.Name, ".") {
			continue
		}
		items = append(items, assetFromInfo(info, client))
	}
	return models.AssetListResponse{Folder: folder, Items: items}, nil
}

// Remove deletes the given paths through the session's client. The backend
// re-checks ownership per path, so a batch can partially succeed; the response
// reports both halves and a partial-failure error is passed through. Deleting
// a "main" slot object clears the cached main-image URL on any part that
// still points at it.
func (m *Manager) Remove(ctx context.Context, sess principal.Session, paths []string) (models.AssetRemoveResponse, error) {
	folder, client, err := m.folderClient(sess)
	if err != nil {
		return models.AssetRemoveResponse{}, err
	}
	result, removeErr := client.Remove(ctx, paths)
	if removeErr != nil && assetstore.KindOf(removeErr) != assetstore.KindPartialFailure {
		return removeResponse(result), removeErr
	}
	for _, deleted := range result.Deleted {
		if !strings.Contains(deleted, "/"+string(ViewMain)+"_jpg/") {
			continue
		}
		if _, err := m.parts.ClearMainImageURLByValue(ctx, sess.UserID, client.PublicURL(deleted)); err != nil {
			return removeResponse(result), fmt.Errorf("clear main image url: %w", err)
		}
	}
	if len(result.Deleted) > 0 {
		m.publish(ws.Event{Type: ws.EventAssetDeleted, Folder: folder, Payload: map[string]any{"paths": result.Deleted}})
	}
	return removeResponse(result), removeErr
}

// RemoveView empties the named view slot. partSlug must name a part owned by
// the session; emptying the "main" slot clears that part's cached main-image
// URL even if the slot only held a placeholder.
func (m *Manager) RemoveView(ctx context.Context, sess principal.Session, partSlug string, view ViewType) (models.AssetRemoveResponse, error) {
	part, err := m.parts.GetPart(ctx, partSlug)
	if err != nil {
		return models.AssetRemoveResponse{}, err
	}
	if part.OwnerID != sess.UserID {
		return models.AssetRemoveResponse{}, store.ErrPartOwnedByAnother
	}
	folder, client, err := m.folderClient(sess)
	if err != nil {
		return models.AssetRemoveResponse{}, err
	}
	prefix := fmt.Sprintf("%s/%s_jpg", folder, view)
	infos, err := client.List(ctx, prefix, assetstore.ListOptions{})
	if err != nil {
		return models.AssetRemoveResponse{}, err
	}
	if len(infos) == 0 {
		return models.AssetRemoveResponse{Deleted: []string{}}, nil
	}
	paths := make([]string, 0, len(infos))
	for _, info := range infos {
		paths = append(paths, info.Path)
	}
	result, removeErr := client.Remove(ctx, paths)
	if removeErr != nil && assetstore.KindOf(removeErr) != assetstore.KindPartialFailure {
		return removeResponse(result), removeErr
	}
	if view == ViewMain && len(result.Deleted) > 0 {
		if err := m.parts.ClearMainImageURL(ctx, partSlug); err != nil {
			return removeResponse(result), fmt.Errorf("clear main image url: %w", err)
		}
		m.publish(ws.Event{Type: ws.EventPartUpdated, Folder: folder, Payload: map[string]string{"slug": partSlug}})
	}
	if len(result.Deleted) > 0 {
		m.publish(ws.Event{Type: ws.EventAssetDeleted, Folder: folder, Payload: map[string]any{"paths": result.Deleted}})
	}
	return removeResponse(result), removeErr
}

// EnsureViewSlots makes every view slot of the session's folder exist, seeding
// empty ones with a hidden placeholder object. The run is idempotent: occupied
// slots are left untouched. Slots are probed concurrently; per-slot failures
// are reported in the response and do not abort the others. The returned error
// is non-nil only when every slot failed.
func (m *Manager) EnsureViewSlots(ctx context.Context, sess principal.Session) (models.EnsureViewSlotsResponse, error) {
	folder, client, err := m.folderClient(sess)
	if err != nil {
		return models.EnsureViewSlotsResponse{}, err
	}

	views := ViewTypes()
	slots := make([]models.ViewSlotResult, len(views))

	var g errgroup.Group
	g.SetLimit(ensureSlotConcurrency)
	for i, view := range views {
		g.Go(func() error {
			slots[i] = m.ensureSlot(ctx, client, folder, view)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, slot := range slots {
		if slot.Error != "" {
			failed++
		}
	}
	resp := models.EnsureViewSlotsResponse{Folder: folder, Slots: slots}
	if failed == len(slots) {
		return resp, &assetstore.Error{
			Kind: assetstore.KindUnavailable,
			Err:  fmt.Errorf("all %d view slots failed", failed),
		}
	}
	return resp, nil
}

func (m *Manager) ensureSlot(ctx context.Context, client assetstore.Client, folder string, view ViewType) models.ViewSlotResult {
	slot := models.ViewSlotResult{View: string(view), Path: fmt.Sprintf("%s/%s_jpg", folder, view)}
	infos, err := client.List(ctx, slot.Path, assetstore.ListOptions{Limit: 1})
	if err != nil {
		slot.Error = err.Error()
		return slot
	}
	if len(infos) > 0 {
		return slot
	}
	placeholder := slot.Path + "/" + slotPlaceholderName
	if _, err := client.Upload(ctx, placeholder, bytes.NewReader(nil), assetstore.UploadOptions{
		Upsert:      true,
		ContentType: "application/octet-stream",
	}); err != nil {
		slot.Error = err.Error()
		return slot
	}
	slot.Created = true
	return slot
}

func assetFromInfo(info assetstore.ObjectInfo, client assetstore.Client) models.Asset {
	return models.Asset{
		Name:      info.Name,
		Path:      info.Path,
		Size:      info.Size,
		CreatedAt: info.CreatedAt.UTC().Format(time.RFC3339Nano),
		PublicURL: client.PublicURL(info.Path),
	}
}

func removeResponse(result assetstore.RemoveResult) models.AssetRemoveResponse {
	resp := models.AssetRemoveResponse{Deleted: result.Deleted}
	if resp.Deleted == nil {
		resp.Deleted = []string{}
	}
	for _, f := range result.Failed {
		code := string(assetstore.KindOf(f.Err))
		if code == "" {
			code = string(assetstore.KindUnavailable)
		}
		resp.Failed = append(resp.Failed, models.AssetRemoveFailure{
			Path:    f.Path,
			Code:    code,
			Message: f.Err.Error(),
		})
	}
	return resp
}
