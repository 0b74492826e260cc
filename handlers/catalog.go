package handlers

import (
	"net/http"

	"coffee-order-bot/config"
	"coffee-order-bot/models"
	"coffee-order-bot/statemachine"

	"github.com/gin-gonic/gin"
)

type ProductRequest struct {
	TitleKey       string               `json:"title_key" binding:"required"`
	DescriptionKey string               `json:"description_key"`
	Photo          string               `json:"photo"`
	SizeOptions    []models.SizeOption  `json:"size_options" binding:"required,min=1,dive"`
	DefaultAddOns  []models.AddOnChoice `json:"default_add_ons"`
	PossibleAddOns []models.AddOnChoice `json:"possible_add_ons"`
	Status         models.ProductStatus `json:"status"`
}

// ListProducts returns the full catalog (admin view, inactive included)
func ListProducts(c *gin.Context) {
	var products []models.Product
	if err := config.DB.Order("id ASC").Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(products), "products": products})
}

// CreateProduct adds a catalog product
func CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status := req.Status
	if status == "" {
		status = models.ProductActive
	}
	product := models.Product{
		TitleKey:       req.TitleKey,
		DescriptionKey: req.DescriptionKey,
		Photo:          req.Photo,
		SizeOptions:    req.SizeOptions,
		DefaultAddOns:  req.DefaultAddOns,
		PossibleAddOns: req.PossibleAddOns,
		Status:         status,
	}
	if err := config.DB.Create(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Product created", "product": product})
}

// UpdateProduct replaces a product's catalog data
func UpdateProduct(c *gin.Context) {
	var product models.Product
	if err := config.DB.First(&product, c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	product.TitleKey = req.TitleKey
	product.DescriptionKey = req.DescriptionKey
	product.Photo = req.Photo
	product.SizeOptions = req.SizeOptions
	product.DefaultAddOns = req.DefaultAddOns
	product.PossibleAddOns = req.PossibleAddOns
	if req.Status != "" {
		product.Status = req.Status
	}
	if err := config.DB.Save(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product updated", "product": product})
}

// DeactivateProduct hides a product from the conversational menu. Existing
// cart lines keep their snapshot prices.
func DeactivateProduct(c *gin.Context) {
	res := config.DB.Model(&models.Product{}).
		Where("id = ?", c.Param("id")).
		Update("status", models.ProductInactive)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to deactivate product"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deactivated"})
}

type TranslationRequest struct {
	Key string `json:"key" binding:"required"`
	En  string `json:"en"`
	Ru  string `json:"ru"`
	Uz  string `json:"uz"`
}

// UpsertTranslation creates or updates the strings behind one message key
func UpsertTranslation(c *gin.Context) {
	var req TranslationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var t models.Translation
	err := config.DB.Where("key = ?", req.Key).First(&t).Error
	if err != nil {
		t = models.Translation{Key: req.Key, En: req.En, Ru: req.Ru, Uz: req.Uz}
		if err := config.DB.Create(&t).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create translation"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"translation": t})
		return
	}
	t.En, t.Ru, t.Uz = req.En, req.Ru, req.Uz
	if err := config.DB.Save(&t).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update translation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"translation": t})
}

// GetStateMachineInfo exposes the journey transition table for docs and
// dashboard tooling
func GetStateMachineInfo(c *gin.Context) {
	transitions := statemachine.GetAllTransitions()
	out := make([]gin.H, 0, len(transitions))
	for _, t := range transitions {
		out = append(out, gin.H{"from": t.From, "to": t.To, "actor": t.Actor})
	}
	c.JSON(http.StatusOK, gin.H{
		"states":      statemachine.AllStates(),
		"transitions": out,
	})
}
