package transfer

type LinkedInPostsResponse struct {
	Elements []LinkedInPost `json:"elements"`
	Paging   struct {
		Start int `json:"start"`
		Count int `json:"count"`
		Total int `json:"total"`
	} `json:"paging"`
}

type LinkedInPost struct {
	ID             string `json:"id"`
	Author         string `json:"author"`
	Commentary     string `json:"commentary"`
	LifecycleState string `json:"lifecycleState"`
	Visibility     string `json:"visibility"`
	PublishedAt    int64  `json:"publishedAt"`
	Created        struct {
		Time int64 `json:"time"`
	} `json:"created"`
	Content *LinkedInPostContent `json:"content,omitempty"`
}

type LinkedInPostContent struct {
	Article *struct {
		Source      string `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Thumbnail   string `json:"thumbnail"`
	} `json:"article,omitempty"`
	Media *struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"media,omitempty"`
	MultiImage *struct {
		Images []struct {
			ID string `json:"id"`
		} `json:"images"`
	} `json:"multiImage,omitempty"`
}

// LinkedInSocialActions covers both the summary objects returned by
// /rest/socialActions and the flat counters some API versions return.
type LinkedInSocialActions struct {
	NumLikes    int `json:"numLikes"`
	NumComments int `json:"numComments"`
	NumShares   int `json:"numShares"`
	NumViews    int `json:"numViews"`

	LikesSummary *struct {
		TotalLikes int `json:"totalLikes"`
	} `json:"likesSummary,omitempty"`
	CommentsSummary *struct {
		AggregatedTotalComments int `json:"aggregatedTotalComments"`
		TotalFirstLevelComments int `json:"totalFirstLevelComments"`
	} `json:"commentsSummary,omitempty"`
}

type LinkedInUserInfo struct {
	Sub     string `json:"sub"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	Email   string `json:"email"`
}

type LinkedInErrorResponse struct {
	Status      int    `json:"status"`
	ServiceCode int    `json:"serviceErrorCode"`
	Code        string `json:"code"`
	Message     string `json:"message"`
}
