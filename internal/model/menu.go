package model

import "time"

// Item is a single dish on the menu.
type Item struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
}

// Section groups items under a heading, in display order.
type Section struct {
	Title string `json:"title"`
	Items []Item `json:"items"`
}

// SocialLink is a labelled URL shown on the public menu page.
type SocialLink struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// ImageBlob holds an uploaded image together with its MIME type. Blobs
// are stored opaquely; the service never inspects the bytes beyond size
// and type metadata.
type ImageBlob struct {
	Data        []byte // raw image bytes
	ContentType string // MIME type reported at upload
}

// Display modes for the public menu page.
const (
	DisplayModeStacked = "stacked"
	DisplayModeTabs    = "tabs"
)

// Background descriptor types.
const (
	BackgroundColor = "color"
	BackgroundImage = "image"
)

// Menu is the per-tenant menu document stored in the `menus` table.
// Each user owns at most one menu. RestaurantName is denormalized from
// the owner's username at creation time and is authoritative: any
// client-supplied value is ignored.
//
// Fields:
//  ID              – primary key identifier.
//  RestaurantID    – owning users.id, unique (one menu per user).
//  RestaurantName  – unique public lookup key, equals owner's username.
//  DisplayName     – heading shown on the page; defaults to the username.
//  Sections        – ordered sections of items (JSON column).
//  TodaysSpecial   – optional highlighted item (JSON column).
//  QRCodeURL       – optional link to a generated QR code.
//  DisplayMode     – "stacked" or "tabs".
//  BackgroundType  – "color" or "image".
//  BackgroundValue – color code used when BackgroundType is "color".
//  BackgroundImg   – optional background image blob.
//  Logo            – optional logo blob.
//  SocialLinks     – ordered name+url pairs (JSON column).
//  CreatedAt       – timestamp of creation.
//  UpdatedAt       – timestamp of last update.
type Menu struct {
	ID              uint64       // menus.id
	RestaurantID    uint64       // menus.restaurant_id
	RestaurantName  string       // menus.restaurant_name
	DisplayName     string       // menus.display_name
	Sections        []Section    // menus.sections (JSON)
	TodaysSpecial   *Item        // menus.todays_special (JSON, nullable)
	QRCodeURL       string       // menus.qr_code_url
	DisplayMode     string       // menus.display_mode
	BackgroundType  string       // menus.background_type
	BackgroundValue string       // menus.background_value
	BackgroundImg   *ImageBlob   // menus.background_image + background_image_type
	Logo            *ImageBlob   // menus.logo + logo_type
	SocialLinks     []SocialLink // menus.social_links (JSON)
	CreatedAt       time.Time    // menus.created_at
	UpdatedAt       time.Time    // menus.updated_at
}
