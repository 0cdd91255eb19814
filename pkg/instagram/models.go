package instagram

import "time"

// ProfileResponse represents the top-level response of the profile endpoint
type ProfileResponse struct {
	RequiresToLogin bool   `json:"requires_to_login"`
	Data            Data   `json:"data"`
	Status          string `json:"status"`
}

// Data wraps the user information in the response
type Data struct {
	User User `json:"user"`
}

// User represents an Instagram user profile
type User struct {
	ID                       string                   `json:"id"`
	Username                 string                   `json:"username"`
	FullName                 string                   `json:"full_name"`
	Biography                string                   `json:"biography"`
	IsVerified               bool                     `json:"is_verified"`
	EdgeFollowedBy           EdgeCount                `json:"edge_followed_by"`
	EdgeFollow               EdgeCount                `json:"edge_follow"`
	EdgeOwnerToTimelineMedia EdgeOwnerToTimelineMedia `json:"edge_owner_to_timeline_media"`
}

// EdgeCount wraps a bare count edge
type EdgeCount struct {
	Count int `json:"count"`
}

// EdgeOwnerToTimelineMedia contains the user's media information
type EdgeOwnerToTimelineMedia struct {
	Count    int      `json:"count"`
	PageInfo PageInfo `json:"page_info"`
	Edges    []Edge   `json:"edges"`
}

// PageInfo contains pagination information
type PageInfo struct {
	HasNextPage bool   `json:"has_next_page"`
	EndCursor   string `json:"end_cursor"`
}

// Edge wraps a single media node
type Edge struct {
	Node Node `json:"node"`
}

// Node represents a single media item
type Node struct {
	ID                    string          `json:"id"`
	Typename              string          `json:"__typename"`
	Shortcode             string          `json:"shortcode"`
	TakenAtTimestamp      int64           `json:"taken_at_timestamp"`
	IsVideo               bool            `json:"is_video"`
	VideoViewCount        int             `json:"video_view_count"`
	EdgeLikedBy           EdgeCount       `json:"edge_liked_by"`
	EdgeMediaToComment    EdgeCount       `json:"edge_media_to_comment"`
	EdgeMediaToCaption    CaptionEdges    `json:"edge_media_to_caption"`
	EdgeMediaToTaggedUser TaggedUserEdges `json:"edge_media_to_tagged_user"`
}

// CaptionEdges wraps the caption text edges of a media node
type CaptionEdges struct {
	Edges []CaptionEdge `json:"edges"`
}

// CaptionEdge wraps a single caption node
type CaptionEdge struct {
	Node CaptionNode `json:"node"`
}

// CaptionNode holds the caption text
type CaptionNode struct {
	Text string `json:"text"`
}

// TaggedUserEdges wraps the tagged user edges of a media node
type TaggedUserEdges struct {
	Edges []TaggedUserEdge `json:"edges"`
}

// TaggedUserEdge wraps a single tagged user node
type TaggedUserEdge struct {
	Node TaggedUserNode `json:"node"`
}

// TaggedUserNode holds the tagged user
type TaggedUserNode struct {
	User ListUser `json:"user"`
}

// MediaResponse is the response shape of the paginated media endpoint
type MediaResponse struct {
	Data   Data   `json:"data"`
	Status string `json:"status"`
}

// UserListResponse is the response shape of the followers/following endpoints
type UserListResponse struct {
	Users     []ListUser `json:"users"`
	NextMaxID string     `json:"next_max_id"`
	Status    string     `json:"status"`
}

// ListUser is a minimal user record inside list responses
type ListUser struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// Caption returns the first caption text of a media node, or empty
func (n *Node) Caption() string {
	if len(n.EdgeMediaToCaption.Edges) == 0 {
		return ""
	}
	return n.EdgeMediaToCaption.Edges[0].Node.Text
}

// TaggedUsernames returns the usernames tagged on a media node
func (n *Node) TaggedUsernames() []string {
	if len(n.EdgeMediaToTaggedUser.Edges) == 0 {
		return nil
	}
	names := make([]string, 0, len(n.EdgeMediaToTaggedUser.Edges))
	for _, e := range n.EdgeMediaToTaggedUser.Edges {
		if e.Node.User.Username != "" {
			names = append(names, e.Node.User.Username)
		}
	}
	return names
}

// TakenAt returns the post's publish time in the local time zone
func (n *Node) TakenAt() time.Time {
	return time.Unix(n.TakenAtTimestamp, 0)
}

// ContentType maps Instagram's typename to a coarse content-type tag
func (n *Node) ContentType() string {
	switch n.Typename {
	case "GraphImage":
		return "Photo"
	case "GraphVideo":
		return "Video/Reel"
	case "GraphSidecar":
		return "Carousel"
	default:
		return "Unknown"
	}
}
