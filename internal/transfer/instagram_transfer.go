package transfer

import "time"

type InstagramToken struct {
	UserID         string    `json:"user_id"`
	AccessToken    string    `json:"access_token"`
	LongLivedToken string    `json:"long_lived_token"`
	ExpiresAt      time.Time `json:"expires_at"`
}

type InstagramUserInfo struct {
	UserID         string `json:"id"`
	Username       string `json:"username"`
	Name           string `json:"name"`
	ProfilePicture string `json:"profile_picture_url"`
}

type InstagramMediaResponse struct {
	Data   []InstagramMedia `json:"data"`
	Paging struct {
		Next string `json:"next"`
	} `json:"paging"`
}

type InstagramMedia struct {
	ID            string `json:"id"`
	Caption       string `json:"caption"`
	MediaType     string `json:"media_type"`
	MediaURL      string `json:"media_url"`
	ThumbnailURL  string `json:"thumbnail_url"`
	Permalink     string `json:"permalink"`
	Timestamp     string `json:"timestamp"`
	LikeCount     int    `json:"like_count"`
	CommentsCount int    `json:"comments_count"`
}

type InstagramInsightsResponse struct {
	Data []struct {
		Name   string `json:"name"`
		Values []struct {
			Value int `json:"value"`
		} `json:"values"`
		TotalValue *struct {
			Value int `json:"value"`
		} `json:"total_value,omitempty"`
	} `json:"data"`
}

type InstagramErrorResponse struct {
	Error struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         int    `json:"code"`
		ErrorSubcode int    `json:"error_subcode"`
		IsTransient  bool   `json:"is_transient"`
		FbtraceID    string `json:"fbtrace_id"`
	} `json:"error"`
}
