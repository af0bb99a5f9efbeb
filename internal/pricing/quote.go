package pricing

import "github.com/shopspring/decimal"

// Line 计价行（单价为加入购物车时的快照或服务端解析价）
type Line struct {
	ProductID uint
	Option    string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Amount 行小计
func (l Line) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// ProductBulk 单个商品的组合价明细
type ProductBulk struct {
	ProductID uint
	BulkResult
}

// Quote 多行计价结果
type Quote struct {
	Subtotal     decimal.Decimal // Σ 单价 × 数量
	BulkDiscount decimal.Decimal // 各商品组合价优惠合计
	Products     []ProductBulk   // 按首次出现顺序
}

// Net 组合价后的商品金额
func (q Quote) Net() decimal.Decimal {
	return q.Subtotal.Sub(q.BulkDiscount)
}

// QuoteLines 汇总多行金额并按商品聚合数量计算组合价
// 同一商品不同规格的数量合并计算；组合价单价取该商品第一行的单价
func QuoteLines(lines []Line, rules map[uint]BulkRule) Quote {
	quote := Quote{Subtotal: decimal.Zero, BulkDiscount: decimal.Zero}
	qty := make(map[uint]int)
	unit := make(map[uint]decimal.Decimal)
	order := make([]uint, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		quote.Subtotal = quote.Subtotal.Add(line.Amount())
		if _, seen := qty[line.ProductID]; !seen {
			order = append(order, line.ProductID)
			unit[line.ProductID] = line.UnitPrice
		}
		qty[line.ProductID] += line.Quantity
	}
	for _, productID := range order {
		result := EvaluateBulk(rules[productID], unit[productID], qty[productID])
		quote.BulkDiscount = quote.BulkDiscount.Add(result.Discount)
		quote.Products = append(quote.Products, ProductBulk{ProductID: productID, BulkResult: result})
	}
	quote.Subtotal = quote.Subtotal.Round(2)
	quote.BulkDiscount = quote.BulkDiscount.Round(2)
	return quote
}
