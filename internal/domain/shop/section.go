package shop

// Section ショップのセクション（カテゴリ）
type Section struct {
	ID          string
	DisplayName string
	Icon        string
	Slot        int
	Title       string
	Hidden      bool
	Items       []*Item
}

// PageCount ページ数を返す（商品が無い場合も1ページ）
func (s *Section) PageCount(perPage int) int {
	if len(s.Items) == 0 || perPage <= 0 {
		return 1
	}
	return (len(s.Items)-1)/perPage + 1
}

// ItemAt 通し番号の商品を返す
func (s *Section) ItemAt(index int) (*Item, error) {
	if index < 0 || index >= len(s.Items) {
		return nil, ErrItemNotFound
	}
	return s.Items[index], nil
}
