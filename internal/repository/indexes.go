package repository

// Collection names.
const (
	CollItems           = "items"
	CollSuppliers       = "suppliers"
	CollInventories     = "inventories"
	CollAgroInventories = "agro_inventories"
	CollMovements       = "stock_movements"
	CollCrops           = "crops"
	CollVarieties       = "crop_varieties"
	CollFarmers         = "farmers"
	CollLands           = "lands"
	CollCropSows        = "crop_sows"
	CollCattle          = "cattle_register"
	CollExitEvents      = "exit_events"
	CollFeedUsages      = "feed_usages"
	CollAccounts        = "chart_accounts"
	CollLedgerEntries   = "ledger_entries"
)

// Index describes a secondary index. Where restricts the index to documents
// matching an equality filter (a partial index).
type Index struct {
	Collection string
	Name       string
	Fields     []string
	Unique     bool
	Where      Filter
}

// Indexes are the indexes every store honours. Unique indexes back the
// uniqueness rules of the records; the partial index on crop_sows keeps a land
// parcel from carrying two active assignments.
var Indexes = []Index{
	{Collection: CollItems, Name: "uniq_item_name", Fields: []string{"nameKey"}, Unique: true},
	{Collection: CollSuppliers, Name: "uniq_supplier_name", Fields: []string{"nameKey"}, Unique: true},
	{Collection: CollInventories, Name: "uniq_item_owner", Fields: []string{"item", "owner"}, Unique: true},
	{Collection: CollAgroInventories, Name: "uniq_crop_variety", Fields: []string{"crop", "variety"}, Unique: true},
	{Collection: CollMovements, Name: "stock", Fields: []string{"stock"}},
	{Collection: CollCrops, Name: "uniq_crop_name", Fields: []string{"nameKey"}, Unique: true},
	{Collection: CollVarieties, Name: "uniq_variety_name", Fields: []string{"crop", "nameKey"}, Unique: true},
	{Collection: CollFarmers, Name: "uniq_farmer_phone", Fields: []string{"phone"}, Unique: true},
	{Collection: CollLands, Name: "uniq_land_name", Fields: []string{"nameKey"}, Unique: true},
	{Collection: CollCropSows, Name: "uniq_active_land", Fields: []string{"land"}, Unique: true, Where: Filter{"active": true}},
	{Collection: CollCropSows, Name: "crop", Fields: []string{"crop"}},
	{Collection: CollCattle, Name: "uniq_tag_number", Fields: []string{"tagNumber"}, Unique: true},
	{Collection: CollExitEvents, Name: "uniq_exit_cattle", Fields: []string{"cattle"}, Unique: true},
	{Collection: CollFeedUsages, Name: "cattle_date", Fields: []string{"cattleId", "date"}},
	{Collection: CollAccounts, Name: "uniq_account_name", Fields: []string{"parent", "nameKey"}, Unique: true},
	{Collection: CollLedgerEntries, Name: "account", Fields: []string{"account"}},
	{Collection: CollLedgerEntries, Name: "journal", Fields: []string{"journalId"}},
}
