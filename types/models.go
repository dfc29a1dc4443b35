package types

import (
	"io"
	"time"
)

// TicketStatus is the fixed pipeline a ticket moves through.
type TicketStatus string

const (
	StatusPending    TicketStatus = "pending"
	StatusInProgress TicketStatus = "in_progress"
	StatusResolved   TicketStatus = "resolved"
	StatusClosed     TicketStatus = "closed"
)

// PipelineOrder lists the statuses in workflow order. The pipeline is
// one-directional; a reopen transition is not modeled.
var PipelineOrder = []TicketStatus{StatusPending, StatusInProgress, StatusResolved, StatusClosed}

// Valid reports whether s is one of the four pipeline statuses.
func (s TicketStatus) Valid() bool {
	for _, known := range PipelineOrder {
		if s == known {
			return true
		}
	}
	return false
}

// UserRole gates which endpoints and views are reachable.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleAdmin   UserRole = "admin"
)

// User represents an authenticated account.
type User struct {
	ID       int      `json:"id"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role"`
	IsActive bool     `json:"is_active"`
	Name     string   `json:"name,omitempty"`
	Avatar   string   `json:"avatar,omitempty"`
}

// Category classifies a maintenance ticket.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Ticket represents a facilities maintenance ticket.
type Ticket struct {
	ID           int            `json:"id"`
	TicketNumber string         `json:"ticket_number"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Student      User           `json:"student"`
	Category     Category       `json:"category"`
	Priority     TicketPriority `json:"priority"`
	Building     string         `json:"building"`
	RoomName     string         `json:"room_name"`
	Status       TicketStatus   `json:"status"`
	Attachments  string         `json:"attachments,omitempty"`
	Comments     int            `json:"comments"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// TicketList is the paginated envelope returned by list endpoints.
type TicketList struct {
	Items  []Ticket `json:"items"`
	Total  int      `json:"total"`
	Limit  int      `json:"limit"`
	Offset int      `json:"offset"`
}

// TicketComment represents a comment on a ticket. The comment collection is
// scoped to one ticket at a time; Ticket carries the owning reference.
type TicketComment struct {
	ID         int       `json:"id"`
	Ticket     Ticket    `json:"ticket"`
	User       User      `json:"user"`
	Message    string    `json:"message"`
	Attachment string    `json:"attachment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TicketFeedback is a student's post-resolution rating. At most one per
// ticket per student; enforced server-side.
type TicketFeedback struct {
	ID        int       `json:"id"`
	Ticket    Ticket    `json:"ticket"`
	Student   User      `json:"student"`
	Rating    int       `json:"rating"`
	Comments  *string   `json:"comments"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NotificationType categorizes an in-app notification.
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

// Notification represents an in-app notification.
type Notification struct {
	ID          string           `json:"id"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Timestamp   time.Time        `json:"timestamp"`
	Read        bool             `json:"read"`
	ActionURL   string           `json:"actionUrl,omitempty"`
	ActionLabel string           `json:"actionLabel,omitempty"`
}

// SearchResult is one hit from the global search endpoint.
type SearchResult struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	Icon        string `json:"icon,omitempty"`
	Meta        string `json:"meta,omitempty"`
}

// HistoryItem is one entry in a user's ticket activity feed.
type HistoryItem struct {
	ID          string `json:"id"`
	TicketPk    int    `json:"ticketPk"`
	TicketID    string `json:"ticketId"`
	Title       string `json:"title"`
	Action      string `json:"action"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
	Date        string `json:"date"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	Category    string `json:"category,omitempty"`
}

// DashboardMetric is one headline figure on the admin dashboard.
type DashboardMetric struct {
	Title    string `json:"title"`
	Value    string `json:"value"`
	Change   string `json:"change"`
	Subtitle string `json:"subtitle"`
	Trend    string `json:"trend"`
}

// TicketVolumeDataPoint is one day's ticket volume.
type TicketVolumeDataPoint struct {
	Day   string `json:"day"`
	Value int    `json:"value"`
}

// DashboardStats is a read-only aggregate snapshot; it is fetched on demand
// and never cached in a store.
type DashboardStats struct {
	Metrics           []DashboardMetric       `json:"metrics"`
	Volume            []TicketVolumeDataPoint `json:"volume"`
	StatusBreakdown   map[string]int          `json:"status_breakdown"`
	CategoryBreakdown map[string]int          `json:"category_breakdown"`
}

// TicketCreatePayload carries the fields of a new ticket. Priority and
// status are assigned server-side on create.
type TicketCreatePayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    int    `json:"category"`
	Building    string `json:"building"`
	RoomName    string `json:"room_name"`
}

// TicketUpdatePayload carries a partial ticket update; nil fields are left
// untouched server-side.
type TicketUpdatePayload struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *int    `json:"category,omitempty"`
	Priority    *int    `json:"priority,omitempty"`
	Building    *string `json:"building,omitempty"`
	RoomName    *string `json:"room_name,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// TicketAdminPatch is the admin-only status/priority patch.
type TicketAdminPatch struct {
	Status   *string `json:"status,omitempty"`
	Priority *int    `json:"priority,omitempty"`
}

// CommentCreatePayload carries a new comment's message text.
type CommentCreatePayload struct {
	Message string `json:"message"`
}

// CommentUpdatePayload carries a partial comment edit.
type CommentUpdatePayload struct {
	Message *string `json:"message,omitempty"`
}

// FeedbackCreatePayload carries a new feedback entry.
type FeedbackCreatePayload struct {
	Rating   int     `json:"rating"`
	Comments *string `json:"comments"`
}

// FeedbackUpdatePayload carries a partial feedback edit.
type FeedbackUpdatePayload struct {
	Rating   *int    `json:"rating,omitempty"`
	Comments *string `json:"comments,omitempty"`
}

// Upload is a binary attachment streamed into a multipart request.
type Upload struct {
	Filename    string
	ContentType string
	Reader      io.Reader
}

// AuthResponse is the envelope the user endpoints return. Success false with
// a 2xx status still means the operation failed (e.g. duplicate email).
type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	User    *User  `json:"user"`
}

// MarkAllReadResult reports how many notifications a bulk mark touched.
type MarkAllReadResult struct {
	Marked int `json:"marked"`
}
