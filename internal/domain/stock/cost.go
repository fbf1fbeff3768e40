package stock

import "github.com/shopspring/decimal"

// CostCalculator implementa el costo promedio ponderado móvil (sólo entradas).
// NuevoCosto = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
// Un stock actual negativo se toma como cero: las unidades faltantes no tienen costo.
func CostCalculator(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	stockActual = decimal.Max(stockActual, decimal.Zero)
	sum := stockActual.Add(cantEntrada)
	if sum.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	num := stockActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	return num.Div(sum)
}

// Valuation valor total del stock: stock * costo promedio, cero si no hay existencias.
func Valuation(current, averageRate decimal.Decimal) decimal.Decimal {
	if !current.IsPositive() {
		return decimal.Zero
	}
	return current.Mul(averageRate)
}
