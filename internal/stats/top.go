package stats

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/htxxx101/burmese-sale-report-dashboard/internal/model"
)

// TopProducts ranks items by revenue across all orders and returns the top n.
// Equal revenues keep the order in which products were first seen.
func TopProducts(orders []model.Order, n int) []model.ProductRank {
	if n <= 0 {
		return nil
	}
	index := map[string]int{}
	var ranks []model.ProductRank
	for _, o := range orders {
		for _, item := range o.Items {
			i, ok := index[item.Name]
			if !ok {
				i = len(ranks)
				index[item.Name] = i
				ranks = append(ranks, model.ProductRank{Name: item.Name, Revenue: decimal.Zero})
			}
			ranks[i].Revenue = ranks[i].Revenue.Add(item.Subtotal)
			ranks[i].Quantity += item.Quantity
		}
	}
	sort.SliceStable(ranks, func(i, j int) bool {
		return ranks[i].Revenue.GreaterThan(ranks[j].Revenue)
	})
	if n > len(ranks) {
		n = len(ranks)
	}
	return ranks[:n]
}
