package models

import (
	"time"

	"coffeeshop/internal/recipe"
)

// Drink is a menu entry. Recipe holds the JSON encoded ingredient list.
type Drink struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"uniqueIndex;size:80;not null" json:"title"`
	Recipe    string    `gorm:"type:text;not null" json:"-"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// DrinkView is the wire representation of a drink.
type DrinkView struct {
	ID     uint   `json:"id"`
	Title  string `json:"title"`
	Recipe any    `json:"recipe"`
}

// ShortIngredient withholds the ingredient name for the public menu.
type ShortIngredient struct {
	Color string `json:"color"`
	Parts int    `json:"parts"`
}

// SetRecipe encodes entries into the stored recipe column.
func (d *Drink) SetRecipe(entries []recipe.Ingredient) error {
	text, err := recipe.Encode(entries)
	if err != nil {
		return err
	}
	d.Recipe = text
	return nil
}

// Ingredients decodes the stored recipe.
func (d Drink) Ingredients() ([]recipe.Ingredient, error) {
	return recipe.Decode(d.Recipe)
}

// Short projects the drink for the public listing.
func (d Drink) Short() (DrinkView, error) {
	entries, err := d.Ingredients()
	if err != nil {
		return DrinkView{}, err
	}
	short := make([]ShortIngredient, 0, len(entries))
	for _, entry := range entries {
		short = append(short, ShortIngredient{Color: entry.Color, Parts: entry.Parts})
	}
	return DrinkView{ID: d.ID, Title: d.Title, Recipe: short}, nil
}

// Long projects the drink with its full recipe.
func (d Drink) Long() (DrinkView, error) {
	entries, err := d.Ingredients()
	if err != nil {
		return DrinkView{}, err
	}
	return DrinkView{ID: d.ID, Title: d.Title, Recipe: entries}, nil
}
