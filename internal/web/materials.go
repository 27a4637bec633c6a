package web

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/erazemk/upcycle/internal/imaging"
	"github.com/erazemk/upcycle/internal/model"
	"github.com/erazemk/upcycle/internal/store"
)

// maxUploadSize bounds the whole listing form, photo included.
const maxUploadSize = 16 << 20

// materialForm is the listing form as typed, for re-rendering after an error.
type materialForm struct {
	Name      string
	Category  string
	Quantity  string
	Unit      string
	Condition string
	Location  string
	Latitude  string
	Longitude string
}

type materialPageData struct {
	PageData
	Form     materialForm
	Listings []model.Material
}

// MaterialPage handles GET /material.
func (s *Server) MaterialPage(w http.ResponseWriter, r *http.Request) {
	s.renderMaterialPage(w, r, http.StatusOK, materialForm{}, "")
}

func (s *Server) renderMaterialPage(w http.ResponseWriter, r *http.Request, status int, form materialForm, errMsg string) {
	claims := GetSession(r.Context())
	listings, err := store.ListMaterialsByOwner(r.Context(), s.DB, claims.Email)
	if err != nil {
		slog.Error("failed to list own materials", "error", err)
	}

	s.Templates.RenderStatus(w, status, "material.html", &materialPageData{
		PageData: PageData{Title: "List a material", User: claims, Error: errMsg},
		Form:     form,
		Listings: listings,
	})
}

// MaterialSubmit handles POST /material.
func (s *Server) MaterialSubmit(w http.ResponseWriter, r *http.Request) {
	claims := GetSession(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.renderMaterialPage(w, r, http.StatusBadRequest, materialForm{}, "Upload is too large (16 MB at most).")
		return
	}

	form := materialForm{
		Name:      strings.TrimSpace(r.FormValue("material_name")),
		Category:  r.FormValue("category"),
		Quantity:  strings.TrimSpace(r.FormValue("quantity")),
		Unit:      strings.TrimSpace(r.FormValue("unit")),
		Condition: strings.TrimSpace(r.FormValue("condition")),
		Location:  strings.TrimSpace(r.FormValue("location")),
		Latitude:  strings.TrimSpace(r.FormValue("latitude")),
		Longitude: strings.TrimSpace(r.FormValue("longitude")),
	}

	m, err := form.material(claims.Email)
	if err == nil {
		err = m.Validate()
	}
	if err != nil {
		s.renderMaterialPage(w, r, http.StatusBadRequest, form, err.Error())
		return
	}

	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		saved, err := s.Uploads.Save(file, header.Filename)
		if errors.Is(err, imaging.ErrUnsupportedFormat) || errors.Is(err, imaging.ErrTooLarge) {
			s.renderMaterialPage(w, r, http.StatusBadRequest, form, "The photo must be a JPEG or PNG of reasonable size.")
			return
		}
		if err != nil {
			slog.Error("failed to save photo", "error", err)
			s.renderMaterialPage(w, r, http.StatusInternalServerError, form, "Could not save the photo, please try again.")
			return
		}
		m.ImageKey = saved.Key
		m.ImageName = saved.OriginalName
	case errors.Is(err, http.ErrMissingFile):
	default:
		s.renderMaterialPage(w, r, http.StatusBadRequest, form, "Could not read the photo.")
		return
	}

	created, err := store.CreateMaterial(r.Context(), s.DB, m)
	if err != nil {
		slog.Error("failed to create material", "error", err)
		if m.ImageKey != "" {
			if err := s.Uploads.Delete(m.ImageKey); err != nil {
				slog.Error("failed to remove orphaned photo", "key", m.ImageKey, "error", err)
			}
		}
		s.renderMaterialPage(w, r, http.StatusInternalServerError, form, "Could not list the material, please try again.")
		return
	}

	slog.Info("material listed", "user", claims.Email, "material", created.ID, "name", created.Name)
	http.Redirect(w, r, "/search", http.StatusSeeOther)
}

// material converts the typed form into a Material owned by owner.
func (f materialForm) material(owner string) (*model.Material, error) {
	qty, err := strconv.ParseFloat(f.Quantity, 64)
	if err != nil {
		return nil, model.ErrQuantityInvalid
	}

	lat, err := optionalFloat(f.Latitude)
	if err != nil {
		return nil, model.ErrCoordinatesInvalid
	}
	lng, err := optionalFloat(f.Longitude)
	if err != nil {
		return nil, model.ErrCoordinatesInvalid
	}

	return &model.Material{
		Name:         f.Name,
		Category:     f.Category,
		Quantity:     qty,
		Unit:         f.Unit,
		Condition:    f.Condition,
		Location:     f.Location,
		Latitude:     lat,
		Longitude:    lng,
		RegisteredBy: owner,
	}, nil
}

func optionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// SearchPage handles GET /search.
func (s *Server) SearchPage(w http.ResponseWriter, r *http.Request) {
	filter := model.SearchFilter{
		Query:     strings.TrimSpace(r.URL.Query().Get("q")),
		Category:  r.URL.Query().Get("category"),
		Condition: r.URL.Query().Get("condition"),
	}

	materials, err := store.SearchMaterials(r.Context(), s.DB, filter)
	if err != nil {
		slog.Error("failed to search materials", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.Templates.Render(w, "search.html", &struct {
		PageData
		Filter    model.SearchFilter
		Searched  bool
		Materials []model.Material
	}{
		PageData:  PageData{Title: "Search materials", User: GetSession(r.Context())},
		Filter:    filter,
		Searched:  !filter.IsEmpty(),
		Materials: materials,
	})
}

// UploadGet handles GET /uploads/{key}.
func (s *Server) UploadGet(w http.ResponseWriter, r *http.Request) {
	path, err := s.Uploads.Path(r.PathValue("key"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		slog.Error("failed to stat upload", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}
