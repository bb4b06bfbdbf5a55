package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-floor/services"
	"github.com/yeremiapane/restaurant-floor/utils"
)

type DishController struct {
	Dishes *services.DishService
}

func NewDishController(dishes *services.DishService) *DishController {
	return &DishController{Dishes: dishes}
}

type dishRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Type        *string  `json:"type"`
	Category    *string  `json:"category"`
	IsAvailable *bool    `json:"isAvailable"`
	ImageURL    *string  `json:"imageUrl"`
	PrepTime    *int     `json:"prepTime"`
}

func (r dishRequest) input() services.DishInput {
	in := services.DishInput{IsAvailable: r.IsAvailable}
	if r.Name != nil {
		in.Name = *r.Name
	}
	if r.Description != nil {
		in.Description = *r.Description
	}
	if r.Price != nil {
		in.Price = *r.Price
	}
	if r.Type != nil {
		in.Type = *r.Type
	}
	if r.Category != nil {
		in.Category = *r.Category
	}
	if r.ImageURL != nil {
		in.ImageURL = *r.ImageURL
	}
	if r.PrepTime != nil {
		in.PrepTime = *r.PrepTime
	}
	return in
}

func (r dishRequest) patch() services.DishPatch {
	return services.DishPatch{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Type:        r.Type,
		Category:    r.Category,
		IsAvailable: r.IsAvailable,
		ImageURL:    r.ImageURL,
		PrepTime:    r.PrepTime,
	}
}

// GetAllDishes -> GET /dish/all
func (dc *DishController) GetAllDishes(c *gin.Context) {
	dishes, err := dc.Dishes.List(c.Request.Context())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of dishes", dishes)
}

// GetDish -> GET /dish/only/:id
func (dc *DishController) GetDish(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	dish, err := dc.Dishes.Get(c.Request.Context(), id)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dish details", dish)
}

// CreateDish -> POST /dish/create
func (dc *DishController) CreateDish(c *gin.Context) {
	var req dishRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}
	dish, err := dc.Dishes.Create(c.Request.Context(), req.input())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Dish created successfully", dish)
}

// UpdateDish -> PATCH /dish/update/:id
func (dc *DishController) UpdateDish(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	var req dishRequest
	if err := bindJSON(c, &req); err != nil {
		utils.RespondError(c, err)
		return
	}
	dish, err := dc.Dishes.Update(c.Request.Context(), id, req.patch())
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dish updated successfully", dish)
}

// DeleteDish -> DELETE /dish/delete/:id
func (dc *DishController) DeleteDish(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	if err := dc.Dishes.Delete(c.Request.Context(), id); err != nil {
		utils.RespondError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dish deleted successfully", nil)
}
