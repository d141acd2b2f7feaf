package api

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"sitebooks-backend/internal/apperr"
	"sitebooks-backend/internal/auth"
	"sitebooks-backend/internal/mw"
	"sitebooks-backend/internal/parse"
	"sitebooks-backend/internal/rbac"
	"sitebooks-backend/internal/store"
)

var statusOf = map[apperr.Kind]int{
	apperr.KindValidation:   http.StatusBadRequest,
	apperr.KindUnauthorized: http.StatusUnauthorized,
	apperr.KindForbidden:    http.StatusForbidden,
	apperr.KindNotFound:     http.StatusNotFound,
	apperr.KindAccessDenied: http.StatusNotFound,
	apperr.KindConflict:     http.StatusConflict,
}

// respondError writes the error envelope for err. Unclassified errors are logged and
// hidden from the caller.
func (h *Handler) respondError(c *gin.Context, err error) {
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input", "details": fieldErrors(invalid)})
		return
	}

	var appErr *apperr.Error
	status, known := 0, false
	if errors.As(err, &appErr) {
		status, known = statusOf[appErr.Kind]
	}
	if !known {
		h.log.WithError(err).WithFields(logrus.Fields{
			"request_id": mw.RequestIDFrom(c),
			"path":       c.FullPath(),
		}).Error("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	body := gin.H{"error": appErr.Message}
	if len(appErr.Details) > 0 {
		body["details"] = appErr.Details
	}
	c.JSON(status, body)
}

func fieldErrors(errs validator.ValidationErrors) map[string]string {
	out := make(map[string]string, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			out[fe.Field()] = "is required"
		case "oneof":
			out[fe.Field()] = "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
		default:
			out[fe.Field()] = "failed " + fe.Tag() + " check"
		}
	}
	return out
}

var jsonNames sync.Once

// useJSONFieldNames makes validation errors name fields by their JSON keys.
func useJSONFieldNames() {
	jsonNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
	})
}

// bind decodes the JSON body into dst and validates its binding tags.
func bind(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		var invalid validator.ValidationErrors
		if errors.As(err, &invalid) {
			return invalid
		}
		return apperr.Validation("invalid request body: %v", err)
	}
	return nil
}

// patch returns an apply func that decodes the request body over the current values.
func patch[T any](c *gin.Context) func(*T) error {
	return func(in *T) error { return bind(c, in) }
}

func idParam(c *gin.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		return 0, apperr.Validation("invalid %s", name)
	}
	return uint(v), nil
}

// ids parses several path parameters at once.
func ids(c *gin.Context, names ...string) ([]uint, error) {
	out := make([]uint, len(names))
	for i, n := range names {
		id, err := idParam(c, n)
		if err != nil {
			return nil, err
		}
		out[i] = id
	}
	return out, nil
}

func actor(c *gin.Context) auth.Actor {
	a, _ := auth.ActorFrom(c)
	return a
}

func scopeOf(c *gin.Context) rbac.Scope {
	return rbac.ScopeFor(actor(c))
}

func rangeQuery(c *gin.Context) (parse.Range, error) {
	r, err := parse.ParseRange(c.Query("from"), c.Query("to"))
	if err != nil {
		return parse.Range{}, apperr.Fields(map[string]string{"range": err.Error()})
	}
	return r, nil
}

// filterQuery reads the common list filters.
func filterQuery(c *gin.Context) (store.Filter, error) {
	f := store.Filter{
		Search:     c.Query("search"),
		Category:   c.Query("category"),
		ActiveOnly: c.Query("active") == "true",
	}
	if raw := c.Query("projectId"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return f, apperr.Fields(map[string]string{"projectId": "must be a number"})
		}
		id := uint(v)
		f.ProjectID = &id
	}
	r, err := rangeQuery(c)
	if err != nil {
		return f, err
	}
	f.Range = r
	return f, nil
}
