package models

type ErrorResponse struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// Asset is one stored image as returned by folder listings.
type Asset struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	CreatedAt string `json:"createdAt"`
	PublicURL string `json:"publicUrl"`
}

type AssetListResponse struct {
	Folder string  `json:"folder"`
	Items  []Asset `json:"items"`
}

type AssetUploadResponse struct {
	Path      string `json:"path"`
	PublicURL string `json:"publicUrl"`
}

type AssetRemoveRequest struct {
	Paths []string `json:"paths"`
}

type AssetRemoveFailure struct {
	Path    string `json:"path"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type AssetRemoveResponse struct {
	Deleted []string             `json:"deleted"`
	Failed  []AssetRemoveFailure `json:"failed,omitempty"`
}

// ViewSlotResult reports one slot of an ensure-view-slots run.
type ViewSlotResult struct {
	View    string `json:"view"`
	Path    string `json:"path"`
	Created bool   `json:"created"`
	Error   string `json:"error,omitempty"`
}

type EnsureViewSlotsResponse struct {
	Folder string           `json:"folder"`
	Slots  []ViewSlotResult `json:"slots"`
}

// Part is the inventory metadata record, keyed by its slug.
type Part struct {
	Slug           string   `json:"slug"`
	Name           string   `json:"name"`
	Make           string   `json:"make,omitempty"`
	Model          string   `json:"model,omitempty"`
	Condition      string   `json:"condition,omitempty"`
	PriceCents     int64    `json:"priceCents"`
	Stock          int      `json:"stock"`
	CategoryID     *string  `json:"categoryId,omitempty"`
	Features       []string `json:"features,omitempty"`
	CompatModels   []string `json:"compatibleModels,omitempty"`
	CompatYears    []string `json:"compatibleYears,omitempty"`
	WeightGrams    int64    `json:"weightGrams,omitempty"`
	Dimensions     string   `json:"dimensions,omitempty"`
	Material       string   `json:"material,omitempty"`
	WarrantyMonths int      `json:"warrantyMonths,omitempty"`
	// MainImageURL is denormalized from the "main" view slot at upload time and
	// cleared when that slot is deleted. Treat it as a cache, not a source of
	// truth.
	MainImageURL string `json:"mainImageUrl,omitempty"`
	OwnerID      string `json:"ownerId"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

type PartUpsertRequest struct {
	Slug           string   `json:"slug"`
	Name           string   `json:"name"`
	Make           string   `json:"make,omitempty"`
	Model          string   `json:"model,omitempty"`
	Condition      string   `json:"condition,omitempty"`
	PriceCents     int64    `json:"priceCents"`
	Stock          int      `json:"stock"`
	CategoryID     *string  `json:"categoryId,omitempty"`
	Features       []string `json:"features,omitempty"`
	CompatModels   []string `json:"compatibleModels,omitempty"`
	CompatYears    []string `json:"compatibleYears,omitempty"`
	WeightGrams    int64    `json:"weightGrams,omitempty"`
	Dimensions     string   `json:"dimensions,omitempty"`
	Material       string   `json:"material,omitempty"`
	WarrantyMonths int      `json:"warrantyMonths,omitempty"`
}

type PartListResponse struct {
	Items []Part `json:"items"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CategoryListResponse struct {
	Items []Category `json:"items"`
}

type SavedItem struct {
	PartSlug  string `json:"partSlug"`
	CreatedAt string `json:"createdAt"`
}

type SavedItemListResponse struct {
	Items []SavedItem `json:"items"`
}

type SaveItemRequest struct {
	PartSlug string `json:"partSlug"`
}

// LoginLinkRequest starts the magic-link flow for an email address.
type LoginLinkRequest struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

type LoginLinkResponse struct {
	// Token is returned in the response because email delivery is out of scope
	// for this service; a mailer would embed it in a link instead.
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

type RedeemRequest struct {
	Token string `json:"token"`
}

type SessionResponse struct {
	AccessToken string `json:"accessToken"`
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName,omitempty"`
	ExpiresAt   string `json:"expiresAt"`
}
