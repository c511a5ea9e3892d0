package domain

// ItemDelta is the signed per-product quantity change between two item sets.
// Positive means more committed quantity, negative means quantity credited back.
type ItemDelta struct {
	ProductID     int64
	DeltaQuantity int64
}

// SumByProduct collapses duplicate lines for the same product into one entry,
// keeping first-seen order. Quantities are additive.
func SumByProduct(items []OrderItem) []OrderItem {
	totals := make(map[int64]int64, len(items))
	order := make([]int64, 0, len(items))
	prices := make(map[int64]float64, len(items))
	for _, item := range items {
		if _, seen := totals[item.ProductID]; !seen {
			order = append(order, item.ProductID)
			prices[item.ProductID] = item.UnitPrice
		}
		totals[item.ProductID] += item.Quantity
	}

	summed := make([]OrderItem, 0, len(order))
	for _, productID := range order {
		summed = append(summed, OrderItem{
			ProductID: productID,
			Quantity:  totals[productID],
			UnitPrice: prices[productID],
		})
	}
	return summed
}

// ComputeDeltas returns the per-product quantity changes between the previous
// and the new item set. Each side is grouped and summed by product first; a
// product missing on one side counts as quantity zero. Products whose summed
// quantity did not change are omitted, so an unchanged order yields no deltas.
func ComputeDeltas(previousItems, newItems []OrderItem) []ItemDelta {
	previous := make(map[int64]int64, len(previousItems))
	for _, item := range previousItems {
		previous[item.ProductID] += item.Quantity
	}
	next := make(map[int64]int64, len(newItems))
	for _, item := range newItems {
		next[item.ProductID] += item.Quantity
	}

	order := make([]int64, 0, len(previous)+len(next))
	seen := make(map[int64]bool, len(previous)+len(next))
	for _, item := range previousItems {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			order = append(order, item.ProductID)
		}
	}
	for _, item := range newItems {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			order = append(order, item.ProductID)
		}
	}

	var deltas []ItemDelta
	for _, productID := range order {
		delta := next[productID] - previous[productID]
		if delta != 0 {
			deltas = append(deltas, ItemDelta{ProductID: productID, DeltaQuantity: delta})
		}
	}
	return deltas
}
