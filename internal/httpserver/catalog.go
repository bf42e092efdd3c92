package httpserver

import (
	"net/http"
	"time"

	"tutormarket/internal/domain"

	"github.com/gin-gonic/gin"
)

type courseResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	StudentRate string    `json:"studentRate"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toCourseResponse(course domain.Course) courseResponse {
	return courseResponse{
		ID:          course.ID,
		Title:       course.Title,
		StudentRate: course.StudentRateCad.StringFixed(2),
		CreatedAt:   course.CreatedAt,
	}
}

func listCoursesHandler(repo CatalogRepo) gin.HandlerFunc {
	return func(c *gin.Context) {
		courses, err := repo.ListCourses(c.Request.Context())
		if err != nil {
			writeError(c, http.StatusInternalServerError, "internal error")
			return
		}
		out := make([]courseResponse, 0, len(courses))
		for _, course := range courses {
			out = append(out, toCourseResponse(course))
		}
		c.JSON(http.StatusOK, gin.H{"count": len(out), "results": out})
	}
}
