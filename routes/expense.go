package routes

import (
	"math"
	"time"

	"mokki-server/models"
	"mokki-server/storage"
	"mokki-server/utils"

	"github.com/kataras/iris/v12"
)

// GetHouseExpenses lists a house's expenses with splits, newest first.
func GetHouseExpenses(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	houseID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid house ID", ctx)
		return
	}
	if _, ok := requireHouseMember(ctx, houseID, userID); !ok {
		return
	}

	var expenses []models.Expense
	if err := storage.DB.
		Preload("Splits").
		Preload("Splits.User").
		Preload("Recipient").
		Where("house_id = ?", houseID).
		Order("created_at DESC").
		Find(&expenses).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	ctx.JSON(iris.Map{"success": true, "expenses": expenses})
}

type CreateExpenseInput struct {
	HouseID     uint    `json:"houseID" validate:"required"`
	Description string  `json:"description" validate:"required,max=512"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	SplitWith   []uint  `json:"splitWith" validate:"required,min=1"`
}

// CreateExpense records a manual expense owed to the caller, split equally
// among the chosen members. Rounding remainders land on the first split so
// the split amounts always sum to the total.
func CreateExpense(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var input CreateExpenseInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}
	if _, ok := requireHouseMember(ctx, input.HouseID, userID); !ok {
		return
	}

	var memberCount int64
	storage.DB.Model(&models.HouseMember{}).
		Where("house_id = ? AND user_id IN ?", input.HouseID, input.SplitWith).
		Count(&memberCount)
	if memberCount != int64(len(input.SplitWith)) {
		utils.CreateError(iris.StatusBadRequest, "Validation Error", "All split participants must be members of the house.", ctx)
		return
	}

	expense := models.Expense{
		HouseID:     input.HouseID,
		RecipientID: userID,
		CreatedByID: userID,
		Description: input.Description,
		Amount:      input.Amount,
		Category:    "manual",
	}
	if err := storage.DB.Create(&expense).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	share := math.Floor(input.Amount/float64(len(input.SplitWith))*100) / 100
	remainder := input.Amount - share*float64(len(input.SplitWith))
	for i, memberID := range input.SplitWith {
		amount := share
		if i == 0 {
			amount += remainder
		}
		split := models.ExpenseSplit{
			ExpenseID: expense.ID,
			UserID:    memberID,
			Amount:    amount,
		}
		if err := storage.DB.Create(&split).Error; err != nil {
			utils.CreateInternalServerError(ctx)
			return
		}
	}

	storage.DB.Preload("Splits").First(&expense, expense.ID)
	storage.PublishHouseEvent(input.HouseID, "expense", "created", expense.ID)
	ctx.JSON(expense)
}

// SettleExpenseSplit marks a split paid. Either the debtor or the expense
// recipient can settle; the stamp records who did.
func SettleExpenseSplit(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	splitID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid split ID", ctx)
		return
	}
	setSplitSettled(ctx, splitID, userID, true)
}

// UnsettleExpenseSplit reverses an accidental settle.
func UnsettleExpenseSplit(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	splitID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid split ID", ctx)
		return
	}
	setSplitSettled(ctx, splitID, userID, false)
}

func setSplitSettled(ctx iris.Context, splitID, userID uint, settled bool) {
	var split models.ExpenseSplit
	if err := storage.DB.First(&split, splitID).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Expense split not found", ctx)
		return
	}
	var expense models.Expense
	if err := storage.DB.First(&expense, split.ExpenseID).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}
	if split.UserID != userID && expense.RecipientID != userID {
		utils.CreateError(iris.StatusForbidden, "Forbidden", "Only the debtor or the recipient can settle a split.", ctx)
		return
	}

	split.Settled = settled
	if settled {
		now := time.Now()
		split.SettledAt = &now
		split.SettledByID = &userID
	} else {
		split.SettledAt = nil
		split.SettledByID = nil
	}
	if err := storage.DB.Save(&split).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if settled && split.UserID != expense.RecipientID {
		storage.DB.Create(&models.Notification{
			UserID:  expense.RecipientID,
			Title:   "Expense settled",
			Message: expense.Description,
			Type:    "expense_settled",
			RefID:   split.ID,
			RefType: "expense_split",
		})
	}

	storage.PublishHouseEvent(expense.HouseID, "expense", "updated", expense.ID)
	ctx.JSON(split)
}

// BalanceEntry is one member's net position in the house ledger: positive
// means the house owes them, negative means they owe.
type BalanceEntry struct {
	UserID  uint    `json:"userID"`
	Owed    float64 `json:"owed"`
	Owes    float64 `json:"owes"`
	Balance float64 `json:"balance"`
}

// GetHouseBalances aggregates unsettled splits into per-member balances.
func GetHouseBalances(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)
	houseID, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid house ID", ctx)
		return
	}
	if _, ok := requireHouseMember(ctx, houseID, userID); !ok {
		return
	}

	var splits []models.ExpenseSplit
	if err := storage.DB.
		Joins("JOIN expenses ON expenses.id = expense_splits.expense_id").
		Where("expenses.house_id = ? AND expense_splits.settled = ?", houseID, false).
		Preload("Expense").
		Find(&splits).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	balances := map[uint]*BalanceEntry{}
	entry := func(id uint) *BalanceEntry {
		if balances[id] == nil {
			balances[id] = &BalanceEntry{UserID: id}
		}
		return balances[id]
	}
	for _, split := range splits {
		if split.Expense == nil || split.UserID == split.Expense.RecipientID {
			continue // owing yourself nets to zero
		}
		entry(split.UserID).Owes += split.Amount
		entry(split.Expense.RecipientID).Owed += split.Amount
	}

	out := make([]BalanceEntry, 0, len(balances))
	for _, e := range balances {
		e.Balance = e.Owed - e.Owes
		out = append(out, *e)
	}
	ctx.JSON(iris.Map{"success": true, "balances": out})
}
