package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cppla/board/utils"
)

// ViewRecorder is satisfied by services.PostService.
type ViewRecorder interface {
	RecordView(postID uint) error
}

// PostViewRecorder bumps a post's view counter after a successful GET of that post.
// Failures are logged and never affect the response.
func PostViewRecorder(recorder ViewRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != http.MethodGet || c.Writer.Status() != http.StatusOK {
			return
		}
		id, err := strconv.ParseUint(c.Param("id"), 10, 64)
		if err != nil || id == 0 {
			return
		}
		if err := recorder.RecordView(uint(id)); err != nil {
			utils.Sugar.Warnw("record post view failed", "post_id", id, "err", err)
		}
	}
}
