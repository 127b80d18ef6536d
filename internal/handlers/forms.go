package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"tourcms/internal/models"
	"tourcms/internal/validation"
)

// Admin form payloads. Fields bind from r.FormValue by their form tag and
// are checked with validation.ValidateStruct.

type tourForm struct {
	CategoryID  string `form:"category_id" validate:"required,uuid"`
	Name        string `form:"name" validate:"required,max=255"`
	Description string `form:"description" validate:"max=5000"`
}

func bindTourForm(r *http.Request) tourForm {
	return tourForm{
		CategoryID:  strings.TrimSpace(r.FormValue("category_id")),
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: strings.TrimSpace(r.FormValue("description")),
	}
}

type sphereForm struct {
	Name        string  `form:"name" validate:"required,max=255"`
	Description string  `form:"description" validate:"max=5000"`
	InitialYaw  float64 `form:"initial_yaw" validate:"min=-360,max=360"`
	SphereFile  string  `form:"sphere_file" validate:"omitempty,http_url,max=2048"`
	SphereImage string  `form:"sphere_image" validate:"omitempty,http_url,max=2048"`
	SortOrder   int     `form:"sort_order" validate:"min=0"`
}

func bindSphereForm(r *http.Request) (sphereForm, error) {
	f := sphereForm{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Description: strings.TrimSpace(r.FormValue("description")),
		SphereFile:  strings.TrimSpace(r.FormValue("sphere_file")),
		SphereImage: strings.TrimSpace(r.FormValue("sphere_image")),
	}
	var err error
	if f.InitialYaw, err = formFloat(r, "initial_yaw"); err != nil {
		return f, err
	}
	if f.SortOrder, err = formInt(r, "sort_order"); err != nil {
		return f, err
	}
	return f, nil
}

// apply copies the form onto sp.
func (f sphereForm) apply(sp *models.Sphere) {
	sp.Name = f.Name
	sp.Description = f.Description
	sp.InitialYaw = f.InitialYaw
	sp.SphereFile = optString(f.SphereFile)
	sp.SphereImage = optString(f.SphereImage)
	sp.SortOrder = f.SortOrder
}

type hotspotForm struct {
	SphereID       string  `form:"sphere_id" validate:"required,uuid"`
	Type           string  `form:"type" validate:"required,max=50,oneof=navigation info"`
	TargetSphereID string  `form:"target_sphere_id" validate:"required_if=Type navigation"`
	Yaw            float64 `form:"yaw" validate:"min=-360,max=360"`
	Pitch          float64 `form:"pitch" validate:"min=-90,max=90"`
	Tooltip        string  `form:"tooltip" validate:"max=255"`
	Content        string  `form:"content" validate:"max=5000"`
}

func bindHotspotForm(r *http.Request) (hotspotForm, error) {
	f := hotspotForm{
		SphereID:       strings.TrimSpace(r.FormValue("sphere_id")),
		Type:           strings.TrimSpace(r.FormValue("type")),
		TargetSphereID: strings.TrimSpace(r.FormValue("target_sphere_id")),
		Tooltip:        strings.TrimSpace(r.FormValue("tooltip")),
		Content:        strings.TrimSpace(r.FormValue("content")),
	}
	if f.Type != string(models.HotspotNavigation) {
		f.TargetSphereID = ""
	}
	var err error
	if f.Yaw, err = formFloat(r, "yaw"); err != nil {
		return f, err
	}
	if f.Pitch, err = formFloat(r, "pitch"); err != nil {
		return f, err
	}
	return f, nil
}

// hotspot converts a validated form into a record.
func (f hotspotForm) hotspot() (*models.Hotspot, error) {
	sphereID, err := uuid.Parse(f.SphereID)
	if err != nil {
		return nil, errors.New("Sphere id must be a valid id.")
	}
	h := &models.Hotspot{
		SphereID: sphereID,
		Type:     models.HotspotType(f.Type),
		Yaw:      f.Yaw,
		Pitch:    f.Pitch,
		Tooltip:  optString(f.Tooltip),
		Content:  optString(f.Content),
	}
	if f.TargetSphereID != "" {
		target, err := uuid.Parse(f.TargetSphereID)
		if err != nil {
			return nil, errors.New("Target sphere id must be a valid id.")
		}
		h.TargetSphereID = &target
	}
	return h, nil
}

type articleForm struct {
	CategoryID    string `form:"category_id" validate:"required,uuid"`
	Title         string `form:"title" validate:"required,max=255"`
	Slug          string `form:"slug" validate:"max=255"`
	Content       string `form:"content" validate:"required"`
	ContentFormat string `form:"content_format" validate:"required,oneof=markdown html"`
	Tags          string `form:"tags" validate:"max=1000"`
}

func bindArticleForm(r *http.Request) articleForm {
	f := articleForm{
		CategoryID:    strings.TrimSpace(r.FormValue("category_id")),
		Title:         strings.TrimSpace(r.FormValue("title")),
		Slug:          strings.TrimSpace(r.FormValue("slug")),
		Content:       r.FormValue("content"),
		ContentFormat: r.FormValue("content_format"),
		Tags:          r.FormValue("tags"),
	}
	if f.ContentFormat == "" {
		f.ContentFormat = string(models.FormatMarkdown)
	}
	return f
}

// tags splits the comma-separated tag input, dropping blanks and repeats.
func (f articleForm) tags() []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, t := range strings.Split(f.Tags, ",") {
		t = strings.TrimSpace(t)
		if t == "" || seen[strings.ToLower(t)] {
			continue
		}
		seen[strings.ToLower(t)] = true
		out = append(out, t)
	}
	return out
}

type categoryForm struct {
	Name string `form:"name" validate:"required,max=255"`
	Type string `form:"type" validate:"required,oneof='virtual tour' article"`
}

func bindCategoryForm(r *http.Request) categoryForm {
	return categoryForm{
		Name: strings.TrimSpace(r.FormValue("name")),
		Type: strings.TrimSpace(r.FormValue("type")),
	}
}

type userForm struct {
	Email       string `form:"email" validate:"required,email,max=255"`
	DisplayName string `form:"display_name" validate:"required,max=255"`
	Password    string `form:"password" validate:"required,min=8"`
	Role        string `form:"role" validate:"required,oneof=admin user"`
}

func bindUserForm(r *http.Request) userForm {
	return userForm{
		Email:       strings.TrimSpace(r.FormValue("email")),
		DisplayName: strings.TrimSpace(r.FormValue("display_name")),
		Password:    r.FormValue("password"),
		Role:        r.FormValue("role"),
	}
}

// formError returns the first validation message for f, or "".
func formError(f any) string {
	verr := validation.ValidateStruct(f)
	if verr == nil {
		return ""
	}
	return verr.Fields()[0].Message + "."
}

func formFloat(r *http.Request, key string) (float64, error) {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number.", label(key))
	}
	return f, nil
}

func formInt(r *http.Request, key string) (int, error) {
	v := strings.TrimSpace(r.FormValue(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number.", label(key))
	}
	return n, nil
}

// label turns "initial_yaw" into "Initial yaw".
func label(key string) string {
	s := strings.ReplaceAll(key, "_", " ")
	return strings.ToUpper(s[:1]) + s[1:]
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
