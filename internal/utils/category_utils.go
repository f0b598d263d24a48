package utils

import (
	"gorm.io/gorm"

	"github.com/Keoroanthony/go-storefront/internal/models"
)

// CategoryTreeIDs returns rootID followed by every descendant, breadth first.
func CategoryTreeIDs(tx *gorm.DB, rootID uint) ([]uint, error) {
	result := []uint{rootID}
	seen := map[uint]bool{rootID: true}
	queue := []uint{rootID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		var children []uint
		if err := tx.Model(&models.Category{}).Where("parent_id = ?", current).Pluck("id", &children).Error; err != nil {
			return nil, err
		}

		for _, child := range children {
			if seen[child] {
				continue
			}
			seen[child] = true
			result = append(result, child)
			queue = append(queue, child)
		}
	}

	return result, nil
}
