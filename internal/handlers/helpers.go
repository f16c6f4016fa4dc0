package handlers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/csrf"

	"mealhq/internal/middleware"
	"mealhq/internal/repository"
	"mealhq/internal/views"
)

const dateLayout = "2006-01-02"

func today() string {
	return time.Now().Format(dateLayout)
}

// basePage fills the layout fields shared by every server-rendered page.
// Flash and error text travel as query parameters across the
// redirect-after-post boundary.
func basePage(ctx context.Context, r *http.Request, settingsRepo repository.SettingsRepository, title string) views.Page {
	groupName, err := settingsRepo.Get(ctx, repository.SettingGroupName)
	if err != nil || groupName == "" {
		groupName = "MealHQ"
	}

	page := views.Page{
		Title:     title,
		GroupName: groupName,
		Flash:     r.URL.Query().Get("flash"),
		Error:     r.URL.Query().Get("error"),
		CSRFField: csrf.TemplateField(r),
	}

	if user := middleware.GetUser(ctx); user.ID != "" {
		page.User = &user
	}
	return page
}

func redirectFlash(w http.ResponseWriter, r *http.Request, path string, flash string) {
	http.Redirect(w, r, path+"?flash="+url.QueryEscape(flash), http.StatusFound)
}

func redirectError(w http.ResponseWriter, r *http.Request, path string, message string) {
	http.Redirect(w, r, path+"?error="+url.QueryEscape(message), http.StatusFound)
}

func formInt(r *http.Request, field string) int {
	value, err := strconv.Atoi(r.FormValue(field))
	if err != nil {
		return 0
	}
	return value
}
