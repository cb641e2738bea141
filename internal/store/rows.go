package store

type userRow struct {
	ID          string `gorm:"column:id;primaryKey"`
	Email       string `gorm:"column:email"`
	DisplayName string `gorm:"column:display_name"`
	CreatedAt   string `gorm:"column:created_at"`
}

func (userRow) TableName() string { return "users" }

type loginTokenRow struct {
	Token     string  `gorm:"column:token;primaryKey"`
	UserID    string  `gorm:"column:user_id"`
	ExpiresAt string  `gorm:"column:expires_at"`
	UsedAt    *string `gorm:"column:used_at"`
	CreatedAt string  `gorm:"column:created_at"`
}

func (loginTokenRow) TableName() string { return "login_tokens" }

type categoryRow struct {
	ID   string `gorm:"column:id;primaryKey"`
	Name string `gorm:"column:name"`
}

func (categoryRow) TableName() string { return "part_categories" }

type partRow struct {
	PartSlug         string  `gorm:"column:part_slug;primaryKey"`
	OwnerID          string  `gorm:"column:owner_id"`
	Name             string  `gorm:"column:name"`
	Make             string  `gorm:"column:make"`
	Model            string  `gorm:"column:model"`
	Condition        string  `gorm:"column:condition"`
	PriceCents       int64   `gorm:"column:price_cents"`
	Stock            int     `gorm:"column:stock"`
	CategoryID       *string `gorm:"column:category_id"`
	FeaturesJSON     string  `gorm:"column:features_json"`
	CompatModelsJSON string  `gorm:"column:compat_models_json"`
	CompatYearsJSON  string  `gorm:"column:compat_years_json"`
	WeightGrams      int64   `gorm:"column:weight_grams"`
	Dimensions       string  `gorm:"column:dimensions"`
	Material         string  `gorm:"column:material"`
	WarrantyMonths   int     `gorm:"column:warranty_months"`
	MainImageURL     string  `gorm:"column:main_image_url"`
	CreatedAt        string  `gorm:"column:created_at"`
	UpdatedAt        string  `gorm:"column:updated_at"`
}

func (partRow) TableName() string { return "vehicle_parts" }

type savedItemRow struct {
	UserID    string `gorm:"column:user_id;primaryKey"`
	PartSlug  string `gorm:"column:part_slug;primaryKey"`
	CreatedAt string `gorm:"column:created_at"`
}

func (savedItemRow) TableName() string { return "saved_items" }
