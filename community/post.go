package community

import (
	"time"
)

type PostStatus string

const (
	PostStatusApproved PostStatus = "approved"
	PostStatusRejected PostStatus = "rejected"
)

// Reference to an uploaded image or video asset. The moderation engine treats
// media as opaque beyond presence and MIME type; cleanup of the underlying
// file is a storage-layer concern.
type MediaRef struct {
	Filename string `json:"filename" bson:"filename"`
	URL      string `json:"url" bson:"url"`
	MimeType string `json:"mimeType,omitempty" bson:"mimeType,omitempty"`
}

// A single community post, the subject of moderation. Status starts
// "approved" and is only ever flipped to "rejected" by enforcement
// resolution; posts are persisted once, after moderation, with their final
// status.
type Post struct {
	ID               string     `json:"id,omitempty" bson:"_id,omitempty"`
	CommunityID      string     `json:"communityId" bson:"communityId"`
	Author           string     `json:"author" bson:"author"`
	Content          string     `json:"content" bson:"content"`
	Media            *MediaRef  `json:"media,omitempty" bson:"media,omitempty"`
	Status           PostStatus `json:"status" bson:"status"`
	RejectionReasons []string   `json:"rejectionReason,omitempty" bson:"rejectionReason,omitempty"`
	Likes            []string   `json:"likes,omitempty" bson:"likes,omitempty"`
	CreatedAt        time.Time  `json:"createdAt" bson:"createdAt"`
}
