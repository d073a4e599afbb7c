package backend

import (
	"time"

	"github.com/shopspring/decimal"
)

type KYCStatus string

const (
	KYCNotSubmitted KYCStatus = "not_submitted"
	KYCPending      KYCStatus = "pending"
	KYCRejected     KYCStatus = "rejected"
	KYCVerified     KYCStatus = "verified"
)

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	KYCStatus KYCStatus `json:"kycStatus,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Image       string          `json:"image,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	IsRental    bool            `json:"isRental,omitempty"`
}

type Service struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category,omitempty"`
	Image       string          `json:"image,omitempty"`
	Icon        string          `json:"icon,omitempty"`
	Price       decimal.Decimal `json:"price"`
}

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug,omitempty"`
	Icon  string `json:"icon,omitempty"`
	Image string `json:"image,omitempty"`
}

type Banner struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Image    string `json:"image"`
	Link     string `json:"link,omitempty"`
	Order    int    `json:"order"`
	IsActive bool   `json:"isActive"`
}

type Location struct {
	ID       string   `json:"id"`
	City     string   `json:"city"`
	State    string   `json:"state"`
	Pincodes []string `json:"pincodes,omitempty"`
}

type Address struct {
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	Landmark string `json:"landmark,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
}

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
)

type BookingItem struct {
	ItemID    string          `json:"itemId"`
	Type      string          `json:"type"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	ProductID string          `json:"productId,omitempty"`
	ServiceID string          `json:"serviceId,omitempty"`
}

type Booking struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId,omitempty"`
	Items         []BookingItem   `json:"items"`
	Amount        decimal.Decimal `json:"amount"`
	Status        BookingStatus   `json:"status"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	PaymentID     string          `json:"paymentId,omitempty"`
	Address       *Address        `json:"address,omitempty"`
	DeliveryDate  string          `json:"deliveryDate,omitempty"`
	TimeSlot      string          `json:"timeSlot,omitempty"`
	CreatedAt     time.Time       `json:"createdAt,omitempty"`
}

type Order struct {
	ID            string          `json:"id"`
	BookingID     string          `json:"bookingId,omitempty"`
	Items         []BookingItem   `json:"items"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
	CreatedAt     time.Time       `json:"createdAt,omitempty"`
}

type CartItem struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	ProductID string          `json:"productId,omitempty"`
	ServiceID string          `json:"serviceId,omitempty"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

type Cart struct {
	ID    string     `json:"id,omitempty"`
	Items []CartItem `json:"items"`
}
