package signal

// Field identifies a canonical signal attribute
type Field int

const (
	FieldSymbol Field = iota
	FieldDirection
	FieldIssuedAt
	FieldEntry
	FieldStopLoss
	FieldTakeProfit
)

// MaxLegs is the number of entry, stop and target columns resolved per record
const MaxLegs = 3

// FieldAlias maps a list of column names, in priority order, onto one canonical slot.
// Leg is 1-based for price fields and 0 for scalar fields.
type FieldAlias struct {
	Field Field
	Leg   int
	Names []string
}

// DefaultAliases returns the column aliases seen across signal exports
func DefaultAliases() []FieldAlias {
	return []FieldAlias{
		{Field: FieldSymbol, Names: []string{"symbol", "pair", "ticker", "coin", "币种", "交易对"}},
		{Field: FieldDirection, Names: []string{"direction", "side", "position", "方向", "多空"}},
		{Field: FieldIssuedAt, Names: []string{"timestamp", "time", "date", "issued_at", "signal_time", "时间", "发布时间", "信号时间"}},

		{Field: FieldEntry, Leg: 1, Names: []string{"entry1", "entry_1", "entry", "entry_price", "入场点位1", "入场点位", "入场价格1", "入场价"}},
		{Field: FieldEntry, Leg: 2, Names: []string{"entry2", "entry_2", "入场点位2", "入场价格2"}},
		{Field: FieldEntry, Leg: 3, Names: []string{"entry3", "entry_3", "入场点位3", "入场价格3"}},

		{Field: FieldStopLoss, Leg: 1, Names: []string{"stop_loss1", "stop_loss_1", "stop_loss", "sl1", "sl", "止损点位1", "止损点位", "止损"}},
		{Field: FieldStopLoss, Leg: 2, Names: []string{"stop_loss2", "stop_loss_2", "sl2", "止损点位2"}},
		{Field: FieldStopLoss, Leg: 3, Names: []string{"stop_loss3", "stop_loss_3", "sl3", "止损点位3"}},

		{Field: FieldTakeProfit, Leg: 1, Names: []string{"take_profit1", "take_profit_1", "take_profit", "tp1", "tp", "target1", "止盈点位1", "止盈点位", "止盈"}},
		{Field: FieldTakeProfit, Leg: 2, Names: []string{"take_profit2", "take_profit_2", "tp2", "target2", "止盈点位2"}},
		{Field: FieldTakeProfit, Leg: 3, Names: []string{"take_profit3", "take_profit_3", "tp3", "target3", "止盈点位3"}},
	}
}

var longKeywords = []string{"long", "buy", "bull", "做多", "开多", "多单", "看多", "买入", "多"}

var shortKeywords = []string{"short", "sell", "bear", "做空", "开空", "空单", "看空", "卖出", "空"}
