package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/nopgate/twocheckout/infra/config"
	"github.com/nopgate/twocheckout/infra/logger"
	"github.com/nopgate/twocheckout/infra/response"
	"github.com/nopgate/twocheckout/provider"
	"github.com/nopgate/twocheckout/provider/twocheckout"
)

// ConfigurationModel is the admin configuration form for the 2Checkout method.
// Account number and secret word are only required outside sandbox mode.
type ConfigurationModel struct {
	UseSandbox              bool    `json:"useSandbox"`
	AccountNumber           string  `json:"accountNumber" validate:"required_if=UseSandbox false"`
	SecretWord              string  `json:"secretWord" validate:"required_if=UseSandbox false"`
	UseMd5Hashing           bool    `json:"useMd5Hashing"`
	AdditionalFee           float64 `json:"additionalFee" validate:"gte=0"`
	AdditionalFeePercentage bool    `json:"additionalFeePercentage"`
	LogIpnErrors            bool    `json:"logIpnErrors"`
}

// ConfigureHandler handles plugin lifecycle and admin configuration requests
type ConfigureHandler struct {
	settings *config.SettingsStorage
	validate *validator.Validate
}

// NewConfigureHandler creates a new configure handler
func NewConfigureHandler(settings *config.SettingsStorage, validate *validator.Validate) *ConfigureHandler {
	return &ConfigureHandler{
		settings: settings,
		validate: validate,
	}
}

// Install seeds the default settings for the payment method
func (h *ConfigureHandler) Install(w http.ResponseWriter, r *http.Request) {
	method, err := provider.CreateMethod(twocheckout.SystemName)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Payment method not registered", err)
		return
	}

	if err := h.settings.Install(twocheckout.SystemName, method.DefaultConfig()); err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to install payment method", err)
		return
	}

	logger.Info("Payment method installed", logger.LogContext{
		Fields: map[string]any{"method": twocheckout.SystemName},
	})

	response.Success(w, http.StatusOK, "Payment method installed", map[string]string{
		"method": twocheckout.SystemName,
	})
}

// Uninstall deletes the persisted settings for the payment method
func (h *ConfigureHandler) Uninstall(w http.ResponseWriter, r *http.Request) {
	if err := h.settings.Uninstall(twocheckout.SystemName); err != nil {
		response.Error(w, http.StatusInternalServerError, "Failed to uninstall payment method", err)
		return
	}

	logger.Info("Payment method uninstalled", logger.LogContext{
		Fields: map[string]any{"method": twocheckout.SystemName},
	})

	response.Success(w, http.StatusOK, "Payment method uninstalled", nil)
}

// GetConfiguration returns the current settings
func (h *ConfigureHandler) GetConfiguration(w http.ResponseWriter, r *http.Request) {
	conf, err := h.settings.Load(twocheckout.SystemName)
	if err != nil {
		if errors.Is(err, config.ErrSettingsNotFound) {
			response.Error(w, http.StatusNotFound, "Payment method is not installed", err)
			return
		}
		response.Error(w, http.StatusInternalServerError, "Failed to load configuration", err)
		return
	}

	response.Success(w, http.StatusOK, "Configuration loaded", modelFromConfig(conf))
}

// SaveConfiguration validates and persists admin-edited settings
func (h *ConfigureHandler) SaveConfiguration(w http.ResponseWriter, r *http.Request) {
	var model ConfigurationModel
	if err := json.NewDecoder(r.Body).Decode(&model); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request format", err)
		return
	}

	if err := h.validate.Struct(model); err != nil {
		response.Error(w, http.StatusBadRequest, "Validation error", err)
		return
	}

	conf := model.toConfig()

	// The method applies its own rules on top of the struct tags
	method, err := provider.CreateMethod(twocheckout.SystemName)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "Payment method not registered", err)
		return
	}
	if err := method.ValidateConfig(conf); err != nil {
		response.Error(w, http.StatusBadRequest, "Validation error", err)
		return
	}

	if err := h.settings.Save(twocheckout.SystemName, conf); err != nil {
		if errors.Is(err, config.ErrSettingsNotFound) {
			response.Error(w, http.StatusNotFound, "Payment method is not installed", err)
			return
		}
		response.Error(w, http.StatusInternalServerError, "Failed to save configuration", err)
		return
	}

	response.Success(w, http.StatusOK, "Configuration saved", model)
}

// toConfig converts the form model into the persisted settings map
func (m ConfigurationModel) toConfig() map[string]string {
	return map[string]string{
		"accountNumber":           m.AccountNumber,
		"secretWord":              m.SecretWord,
		"useSandbox":              strconv.FormatBool(m.UseSandbox),
		"useMd5Hashing":           strconv.FormatBool(m.UseMd5Hashing),
		"additionalFee":           strconv.FormatFloat(m.AdditionalFee, 'f', -1, 64),
		"additionalFeePercentage": strconv.FormatBool(m.AdditionalFeePercentage),
		"logIpnErrors":            strconv.FormatBool(m.LogIpnErrors),
	}
}

// modelFromConfig converts a settings map back into the form model
func modelFromConfig(conf map[string]string) ConfigurationModel {
	fee, _ := strconv.ParseFloat(conf["additionalFee"], 64)

	return ConfigurationModel{
		UseSandbox:              conf["useSandbox"] == "true",
		AccountNumber:           conf["accountNumber"],
		SecretWord:              conf["secretWord"],
		UseMd5Hashing:           conf["useMd5Hashing"] == "true",
		AdditionalFee:           fee,
		AdditionalFeePercentage: conf["additionalFeePercentage"] == "true",
		LogIpnErrors:            conf["logIpnErrors"] == "true",
	}
}
