package models

// ItemView is the flattened kitchen row shared by events, CheckTable and the panel.
type ItemView struct {
	TableID      uint       `json:"id_table"`
	TableNumber  int        `json:"number"`
	CustomerID   uint       `json:"id_customer"`
	OrderID      uint       `json:"id_order"`
	OrderItemID  uint       `json:"id_order_item"`
	DishID       uint       `json:"id_dish"`
	CustomerName string     `json:"name_customer"`
	Quantity     int        `json:"quantity"`
	Status       ItemStatus `json:"status"`
	DishName     string     `json:"name_dish"`
	Type         DishType   `json:"type"`
	Description  string     `json:"description"`
	Price        float64    `json:"price"`
	IsAvailable  bool       `json:"isAvailable"`
	ImageURL     string     `json:"imageUrl"`
	PrepTime     int        `json:"prepTime"`
}

// NewItemView joins an item with its table, customer and dish. Missing
// relations leave the corresponding fields at their zero value.
func NewItemView(table *Table, customer *Customer, item OrderItem, dish *Dish) ItemView {
	view := ItemView{
		CustomerID:  item.CustomerID,
		OrderID:     item.OrderID,
		OrderItemID: item.ID,
		DishID:      item.DishID,
		Quantity:    item.Quantity,
		Status:      item.Status,
	}
	if table != nil {
		view.TableID = table.ID
		view.TableNumber = table.Number
	}
	if customer != nil {
		view.CustomerName = customer.Name
	}
	if dish != nil {
		view.DishName = dish.Name
		view.Type = dish.Type
		view.Description = dish.Description
		view.Price = dish.Price
		view.IsAvailable = dish.IsAvailable
		view.ImageURL = dish.ImageURL
		view.PrepTime = dish.PrepTime
	}
	return view
}
