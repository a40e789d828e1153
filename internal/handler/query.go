package handler

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/deppfellow/rsweb/internal/command"
	"github.com/deppfellow/rsweb/internal/errs"
	"github.com/deppfellow/rsweb/internal/pagination"
	"github.com/deppfellow/rsweb/internal/server"
	"github.com/deppfellow/rsweb/internal/service"
	"github.com/deppfellow/rsweb/internal/validation"
	"github.com/deppfellow/rsweb/internal/view"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

const (
	// ConsoleField is the form field the console posts its command in.
	ConsoleField = "console"

	maxQueryBody = 1 << 20
	maxMemory    = 8 << 20
)

var codeUnrecognizedCommand = "UNRECOGNIZED_COMMAND"

// QueryRoute is one of the console routes and the page it shows on GET.
type QueryRoute struct {
	Path        string
	Title       string
	DefaultView string
}

// QueryRoutes are the routes that accept console commands.
var QueryRoutes = []QueryRoute{
	{Path: "/", Title: "Object store", DefaultView: view.PageObjStore},
	{Path: "/scenes", Title: "Object store", DefaultView: view.PageObjStore},
	{Path: "/query", Title: "Query console", DefaultView: view.PageBase},
	{Path: "/prolog_query", Title: "Query console", DefaultView: view.PageBase},
}

// QueryRequest is the payload of a console route.
type QueryRequest struct {
	Console string

	// Query is the request query string; pagination reads page and per_page from it.
	Query url.Values
}

func newQueryRequest() *QueryRequest {
	return &QueryRequest{}
}

// Bind reads the command from the console form field, falling back to the
// raw body when the request is not a form or carries no such field.
func (r *QueryRequest) Bind(c echo.Context) error {
	r.Query = c.QueryParams()

	req := c.Request()
	if req.Method != http.MethodPost || req.Body == nil {
		return nil
	}

	raw, err := io.ReadAll(io.LimitReader(req.Body, maxQueryBody+1))
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", err)
	}
	if len(raw) > maxQueryBody {
		return errs.NewBadRequestError("Request body too large", true, nil, nil, nil)
	}
	req.Body = io.NopCloser(bytes.NewReader(raw))

	mediaType, _, _ := mime.ParseMediaType(req.Header.Get(echo.HeaderContentType))
	if mediaType == echo.MIMEApplicationForm || mediaType == echo.MIMEMultipartForm {
		form, err := formValues(c, mediaType)
		if err != nil {
			return errs.NewBadRequestError("Malformed form body", true, nil, nil, nil)
		}
		if v, ok := form[ConsoleField]; ok && len(v) > 0 {
			r.Console = v[0]
			return nil
		}
	}

	r.Console = string(raw)
	return nil
}

// formValues parses the buffered body as a form and returns its fields.
// mediaType is already lowercased, so mixed-case headers still match.
func formValues(c echo.Context, mediaType string) (url.Values, error) {
	req := c.Request()
	if mediaType == echo.MIMEMultipartForm {
		if err := req.ParseMultipartForm(maxMemory); err != nil {
			return nil, err
		}
	}
	if _, err := c.FormParams(); err != nil {
		return nil, err
	}
	return req.PostForm, nil
}

func (r *QueryRequest) Validate() error {
	return validation.Struct(r)
}

// QueryHandler serves the console routes.
type QueryHandler struct {
	Handler
	scenes *service.SceneService
}

func NewQueryHandler(s *server.Server, scenes *service.SceneService) *QueryHandler {
	return &QueryHandler{
		Handler: NewHandler(s),
		scenes:  scenes,
	}
}

// Show renders the route's default page. It never looks at a command.
func (h *QueryHandler) Show(route QueryRoute) echo.HandlerFunc {
	return HandleHTML(h.Handler, func(c echo.Context, req *QueryRequest) (Page, error) {
		if route.DefaultView == view.PageObjStore {
			args := pagination.ParseArgs(req.Query, h.server.Config.Pagination.PerPage)
			return h.scenePage(c, route, view.PageObjStore, req, &args)
		}
		return Page{
			Template: route.DefaultView,
			Data:     view.BaseData{Title: route.Title, Action: route.Path},
		}, nil
	}, http.StatusOK, newQueryRequest)
}

// Run classifies the posted command and renders its result.
func (h *QueryHandler) Run(route QueryRoute) echo.HandlerFunc {
	return HandleHTML(h.Handler, func(c echo.Context, req *QueryRequest) (Page, error) {
		return h.dispatch(c, route, req)
	}, http.StatusOK, newQueryRequest)
}

func (h *QueryHandler) dispatch(c echo.Context, route QueryRoute, req *QueryRequest) (Page, error) {
	ctx := c.Request().Context()

	cmd := command.Parse(req.Console)
	h.scenes.RecordCommand(cmd)

	zerolog.Ctx(ctx).Debug().
		Str("command", string(cmd.Kind())).
		Msg("console command classified")

	switch v := cmd.(type) {
	case command.ObjectInstanceLookup:
		instances, err := h.scenes.LookupObjectInstances(ctx, v.ID)
		if err != nil {
			return Page{}, err
		}
		return Page{
			Template: view.PageObjects,
			Data: view.ObjectsData{
				Title:     fmt.Sprintf("Object %d", v.ID),
				Action:    route.Path,
				Instances: instances,
				ObjectID:  v.ID,
				Lookup:    true,
			},
		}, nil

	case command.ListObjects:
		objects, err := h.scenes.ListObjects(ctx)
		if err != nil {
			return Page{}, err
		}
		return Page{
			Template: view.PageObjects,
			Data: view.ObjectsData{
				Title:   "Persistent objects",
				Action:  route.Path,
				Objects: objects,
			},
		}, nil

	case command.ListScenes:
		args := pagination.ParseArgs(req.Query, h.server.Config.Pagination.PerPage)
		if !args.Explicit {
			return h.scenePage(c, route, view.PageScenes, req, nil)
		}
		return h.scenePage(c, route, view.PageScenes, req, &args)

	case command.Unrecognized:
		return Page{}, errs.NewBadRequestError(
			"Unrecognized console command, expected objects, scenes or an object id like (3)",
			true, &codeUnrecognizedCommand, nil, nil,
		)
	}

	return Page{}, fmt.Errorf("unhandled command kind %s", cmd.Kind())
}

// scenePage lists scenes inside args, or all of them when args is nil, and
// attaches the pagination widget when a window applies.
func (h *QueryHandler) scenePage(c echo.Context, route QueryRoute, template string, req *QueryRequest, args *pagination.Args) (Page, error) {
	page, err := h.scenes.ListScenes(c.Request().Context(), args)
	if err != nil {
		return Page{}, err
	}

	data := view.ScenesData{
		Title:  route.Title,
		Action: route.Path,
		Scenes: page.Scenes,
	}

	if args != nil {
		data.Page = args.Page
		data.PerPage = args.PerPage
		data.Pagination = pagination.New(
			h.server.Config.Pagination, *args, page.Total, "scenes",
			c.Request().URL.Path, req.Query,
		)
	}

	return Page{Template: template, Data: data}, nil
}
