package req

type SettingURI struct {
	Component string `uri:"component" binding:"required"`
	Name      string `uri:"name" binding:"required"`
}

type SetSettingRequest struct {
	Value *string `json:"value" binding:"required"`
}
