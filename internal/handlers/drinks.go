package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"coffeeshop/internal/db"
	applog "coffeeshop/internal/log"
	"coffeeshop/internal/recipe"
	"coffeeshop/models"
)

// ListDrinks returns every drink in its short form. No token is required.
func (a *API) ListDrinks(w http.ResponseWriter, r *http.Request) {
	a.listDrinks(w, r, models.Drink.Short)
}

// ListDrinkDetails returns every drink with its full recipe.
func (a *API) ListDrinkDetails(w http.ResponseWriter, r *http.Request) {
	a.listDrinks(w, r, models.Drink.Long)
}

func (a *API) listDrinks(w http.ResponseWriter, r *http.Request, project func(models.Drink) (models.DrinkView, error)) {
	drinks, err := a.drinks.All(r.Context())
	if err != nil {
		storageFailure(w, r, "list", err)
		return
	}

	views := make([]models.DrinkView, 0, len(drinks))
	for _, drink := range drinks {
		view, err := project(drink)
		if err != nil {
			applog.Error(r.Context(), "stored recipe could not be decoded", "drink", drink.ID, "error", err)
			writeStatus(w, r, http.StatusUnprocessableEntity)
			return
		}
		views = append(views, view)
	}

	applog.Debug(r.Context(), "drinks listed", "count", len(views))
	writeJSON(w, r, http.StatusOK, drinksEnvelope{Success: true, Drinks: views})
}

// CreateDrink adds a drink from a body carrying both title and recipe.
func (a *API) CreateDrink(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeObject(r)
	if err != nil {
		applog.Debug(r.Context(), "create drink body rejected", "error", err)
		writeStatus(w, r, http.StatusBadRequest)
		return
	}

	titleRaw, hasTitle := fields["title"]
	recipeRaw, hasRecipe := fields["recipe"]
	if !hasTitle || !hasRecipe || isNull(titleRaw) || isNull(recipeRaw) {
		writeStatus(w, r, http.StatusBadRequest)
		return
	}

	title, ok := parseTitle(titleRaw)
	if !ok {
		writeStatus(w, r, http.StatusBadRequest)
		return
	}
	entries, err := recipe.Normalize(recipeRaw)
	if err != nil {
		applog.Debug(r.Context(), "create drink recipe rejected", "error", err)
		writeStatus(w, r, http.StatusUnprocessableEntity)
		return
	}

	drink := &models.Drink{Title: title}
	if err := drink.SetRecipe(entries); err != nil {
		writeStatus(w, r, http.StatusUnprocessableEntity)
		return
	}
	if err := a.drinks.Insert(r.Context(), drink); err != nil {
		storageFailure(w, r, "insert", err)
		return
	}

	applog.Info(r.Context(), "drink created", "drink", drink.ID, "title", drink.Title)
	a.respondWithDrink(w, r, drink.ID)
}

// UpdateDrink applies the truthy title and recipe members of the body to an
// existing drink.
func (a *API) UpdateDrink(w http.ResponseWriter, r *http.Request) {
	drink, ok := a.lookupDrink(w, r)
	if !ok {
		return
	}

	fields, err := decodeObject(r)
	if err != nil {
		applog.Debug(r.Context(), "update drink body rejected", "error", err)
		writeStatus(w, r, http.StatusBadRequest)
		return
	}

	if raw, present := fields["title"]; present && !isFalsy(raw) {
		title, ok := parseTitle(raw)
		if !ok {
			writeStatus(w, r, http.StatusBadRequest)
			return
		}
		drink.Title = title
	}
	if raw, present := fields["recipe"]; present && !isFalsy(raw) {
		entries, err := recipe.Normalize(raw)
		if err != nil {
			applog.Debug(r.Context(), "update drink recipe rejected", "error", err)
			writeStatus(w, r, http.StatusUnprocessableEntity)
			return
		}
		if err := drink.SetRecipe(entries); err != nil {
			writeStatus(w, r, http.StatusUnprocessableEntity)
			return
		}
	}

	if err := a.drinks.Update(r.Context(), drink); err != nil {
		storageFailure(w, r, "update", err)
		return
	}

	applog.Info(r.Context(), "drink updated", "drink", drink.ID)
	a.respondWithDrink(w, r, drink.ID)
}

// DeleteDrink removes a drink and echoes its id.
func (a *API) DeleteDrink(w http.ResponseWriter, r *http.Request) {
	drink, ok := a.lookupDrink(w, r)
	if !ok {
		return
	}

	if err := a.drinks.Delete(r.Context(), drink); err != nil {
		storageFailure(w, r, "delete", err)
		return
	}

	applog.Info(r.Context(), "drink deleted", "drink", drink.ID)
	writeJSON(w, r, http.StatusOK, deleteEnvelope{Success: true, Delete: drink.ID})
}

func (a *API) lookupDrink(w http.ResponseWriter, r *http.Request) (*models.Drink, bool) {
	id, ok := drinkID(r)
	if !ok {
		writeStatus(w, r, http.StatusNotFound)
		return nil, false
	}

	drink, err := a.drinks.ByID(r.Context(), id)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			storageFailure(w, r, "lookup", err)
			return nil, false
		}
		applog.Debug(r.Context(), "drink not found", "drink", id)
		writeStatus(w, r, http.StatusNotFound)
		return nil, false
	}
	return drink, true
}

// respondWithDrink re-reads the stored record so the response reflects what
// was persisted.
func (a *API) respondWithDrink(w http.ResponseWriter, r *http.Request, id uint) {
	stored, err := a.drinks.ByID(r.Context(), id)
	if err != nil {
		storageFailure(w, r, "reload", err)
		return
	}
	view, err := stored.Long()
	if err != nil {
		writeStatus(w, r, http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, r, http.StatusOK, drinksEnvelope{Success: true, Drinks: []models.DrinkView{view}})
}

func drinkID(r *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, strconv.IntSize)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func parseTitle(raw json.RawMessage) (string, bool) {
	var title string
	if err := json.Unmarshal(raw, &title); err != nil {
		return "", false
	}
	title = strings.TrimSpace(title)
	return title, title != ""
}
