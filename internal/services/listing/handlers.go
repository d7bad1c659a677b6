package listing

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/puzzleswap-api/internal/db"
	"github.com/rajivgeraev/puzzleswap-api/internal/middleware"
	"github.com/rajivgeraev/puzzleswap-api/internal/utils"
)

// GetPublicListings - каталог с фильтрами pieces, brand, theme, missing
func (s *ListingService) GetPublicListings(c fiber.Ctx) error {
	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	listings, err := s.Browse(ctx, Filter{
		Pieces:  c.Query("pieces"),
		Brand:   c.Query("brand"),
		Theme:   c.Query("theme"),
		Missing: c.Query("missing"),
	})
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(fiber.Map{"listings": listings})
}

// GetMyListings возвращает объявления текущего пользователя
func (s *ListingService) GetMyListings(c fiber.Ctx) error {
	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	listings, err := s.Mine(ctx, middleware.IdentityFrom(c))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(fiber.Map{"listings": listings})
}

// GetListing возвращает карточку объявления; токен необязателен
func (s *ListingService) GetListing(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorJSON(c, fiber.StatusNotFound, ErrListingNotFound.Error())
	}

	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	detail, err := s.Detail(ctx, middleware.IdentityFrom(c), id)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(detail)
}

// CreateListing принимает multipart-форму с полями объявления и файлами photos
func (s *ListingService) CreateListing(c fiber.Ctx) error {
	in := CreateInput{
		Title:         c.FormValue("title"),
		Brand:         c.FormValue("brand"),
		Theme:         c.FormValue("theme"),
		Condition:     c.FormValue("condition"),
		MissingPieces: c.FormValue("missing_pieces"),
		Notes:         c.FormValue("notes"),
	}
	if raw := strings.TrimSpace(c.FormValue("pieces")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return utils.ErrorJSON(c, fiber.StatusBadRequest, ErrInvalidPieces.Error())
		}
		in.Pieces = &n
	}

	var files []Upload
	if form, err := c.MultipartForm(); err == nil {
		for _, fh := range form.File["photos"] {
			files = append(files, Upload{
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Size:        fh.Size,
				Open:        func() (io.ReadCloser, error) { return fh.Open() },
			})
		}
	}

	// Загрузка фото не укладывается в db.QueryTimeout, поэтому без него
	detail, err := s.Create(c.Context(), middleware.IdentityFrom(c), in, files)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(detail)
}

// DeleteListing удаляет объявление владельца
func (s *ListingService) DeleteListing(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return utils.ErrorJSON(c, fiber.StatusNotFound, ErrListingNotFound.Error())
	}

	ctx, cancel := db.GetContext(c.Context())
	defer cancel()

	if err := s.Delete(ctx, middleware.IdentityFrom(c), id); err != nil {
		return s.writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *ListingService) writeError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return utils.ErrorJSON(c, fiber.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrTitleRequired), errors.Is(err, ErrInvalidPieces):
		return utils.ErrorJSON(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotOwner):
		return utils.ErrorJSON(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, ErrListingNotFound):
		return utils.ErrorJSON(c, fiber.StatusNotFound, err.Error())
	}
	return utils.InternalError(c, s.log, err)
}
