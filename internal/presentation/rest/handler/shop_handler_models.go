package handler

// SectionResponse ショップのセクション
// @Description ショップのセクション
type SectionResponse struct {
	ID          string `json:"id" example:"blocks"`
	DisplayName string `json:"display_name" example:"Blocks"`
	Icon        string `json:"icon" example:"GRASS_BLOCK"`
	Slot        int    `json:"slot" example:"10"`
	Title       string `json:"title,omitempty" example:"Building Blocks"`
	ItemCount   int    `json:"item_count" example:"46"`
	Pages       int    `json:"pages" example:"2"`
}

// SectionListResponse セクション一覧
// @Description セクション一覧
type SectionListResponse struct {
	Sections []SectionResponse `json:"sections"`
}
