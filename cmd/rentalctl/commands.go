package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"mediarent-backend/internal/domain"
	"mediarent-backend/internal/service"
	"mediarent-backend/migrations"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func runMigrate(ctx context.Context, a *app, args []string) error {
	version, err := migrations.Up(ctx, a.db)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "schema at version %d\n", version)
	return nil
}

func runSetPIN(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("set-pin", flag.ContinueOnError)
	current := fs.String("current", "", "Current PIN, required once a PIN is set")
	pin := fs.String("new", "", "New PIN (4-8 digits)")
	if err := fs.Parse(args); err != nil {
		return domain.Validationf("%v", err)
	}
	if err := a.lock.SetPIN(ctx, *current, *pin); err != nil {
		return err
	}
	// an old session must not outlive the PIN it was opened with
	if err := a.session.Clear(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "PIN updated")
	return nil
}

func runUnlock(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("unlock", flag.ContinueOnError)
	pin := fs.String("pin", "", "PIN")
	if err := fs.Parse(args); err != nil {
		return domain.Validationf("%v", err)
	}
	token, expiresAt, err := a.lock.Unlock(ctx, *pin)
	if err != nil {
		return err
	}
	if err := a.session.Write(token); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "unlocked until %s\n", expiresAt.Local().Format(time.TimeOnly))
	return nil
}

func runOverdue(ctx context.Context, a *app, args []string) error {
	views, err := a.rentals.ListOverdue(ctx)
	if err != nil {
		return err
	}
	return writeOverdue(a.out, views)
}

func writeOverdue(w io.Writer, views []domain.RentalView) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NUMBER\tPLANNED END\tDAYS OVERDUE\tTOTAL")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n",
			v.Rental.RentalNumber,
			v.Rental.PlannedEndDate.Format(time.DateOnly),
			v.DaysOverdue,
			v.Rental.TotalPrice.StringFixed(2))
	}
	return tw.Flush()
}

func runQR(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("qr", flag.ContinueOnError)
	equipment := fs.String("equipment", "", "Equipment ID or inventory number to encode")
	rental := fs.String("rental", "", "Rental ID to encode")
	parse := fs.String("parse", "", "Scanned payload to resolve")
	if err := fs.Parse(args); err != nil {
		return domain.Validationf("%v", err)
	}
	scheme := a.cfg.QR.Scheme

	switch {
	case *equipment != "":
		if id, err := uuid.Parse(*equipment); err == nil {
			fmt.Fprintln(a.out, domain.EquipmentQRPayload(scheme, id))
			return nil
		}
		e, err := a.equipment.GetByInventoryNumber(ctx, *equipment)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, domain.EquipmentInventoryQRPayload(scheme, e.InventoryNumber))
		return nil
	case *rental != "":
		id, err := uuid.Parse(*rental)
		if err != nil {
			return domain.Validationf("rental id %q is not a uuid", *rental)
		}
		fmt.Fprintln(a.out, domain.RentalQRPayload(scheme, id))
		return nil
	case *parse != "":
		return resolveQR(ctx, a, *parse)
	default:
		return domain.Validationf("one of -equipment, -rental or -parse is required")
	}
}

func resolveQR(ctx context.Context, a *app, payload string) error {
	target, err := domain.ParseQRPayload(payload)
	if err != nil {
		return err
	}
	if target.Scheme != a.cfg.QR.Scheme {
		return domain.Validationf("qr scheme %q is not %q", target.Scheme, a.cfg.QR.Scheme)
	}

	switch target.Kind {
	case domain.QRKindEquipment:
		var e *domain.Equipment
		if target.ID != nil {
			e, err = a.equipment.Get(ctx, *target.ID)
		} else {
			e, err = a.equipment.GetByInventoryNumber(ctx, target.InventoryNumber)
		}
		if err != nil {
			return err
		}
		return writeRecord(a.out, e.Record())
	default:
		v, err := a.rentals.Get(ctx, *target.ID)
		if err != nil {
			return err
		}
		rec := v.Rental.Record()
		rec["display_status"] = string(v.DisplayStatus)
		return writeRecord(a.out, rec)
	}
}

func runEquipmentAdd(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("equipment-add", flag.ContinueOnError)
	name := fs.String("name", "", "Name")
	serial := fs.String("serial", "", "Serial number")
	manufacturer := fs.String("manufacturer", "", "Manufacturer")
	model := fs.String("model", "", "Model")
	rate := fs.String("rate", "", "Daily rate")
	price := fs.String("purchase-price", "", "Purchase price")
	notes := fs.String("notes", "", "Notes")
	category := fs.String("category", "", "Category lookup ID")
	condition := fs.String("condition", "", "Condition lookup ID")
	location := fs.String("location", "", "Location lookup ID")
	if err := fs.Parse(args); err != nil {
		return domain.Validationf("%v", err)
	}

	dailyRate, err := parseOptionalDecimal("rate", *rate)
	if err != nil {
		return err
	}
	purchasePrice, err := parseOptionalDecimal("purchase-price", *price)
	if err != nil {
		return err
	}

	e := &domain.Equipment{
		Name:          *name,
		SerialNumber:  *serial,
		Manufacturer:  *manufacturer,
		Model:         *model,
		DailyRate:     dailyRate,
		PurchasePrice: purchasePrice,
		Notes:         *notes,
	}
	if e.CategoryID, err = parseOptionalID("category", *category); err != nil {
		return err
	}
	if e.ConditionID, err = parseOptionalID("condition", *condition); err != nil {
		return err
	}
	if e.LocationID, err = parseOptionalID("location", *location); err != nil {
		return err
	}
	if err := a.equipment.Create(ctx, e); err != nil {
		return err
	}
	return writeRecord(a.out, e.Record())
}

func runCustomerAdd(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("customer-add", flag.ContinueOnError)
	c := &domain.Customer{}
	fs.StringVar(&c.FirstName, "first", "", "First name")
	fs.StringVar(&c.LastName, "last", "", "Last name")
	fs.StringVar(&c.Company, "company", "", "Company")
	fs.StringVar(&c.Email, "email", "", "Email")
	fs.StringVar(&c.Phone, "phone", "", "Phone")
	fs.StringVar(&c.City, "city", "", "City")
	if err := fs.Parse(args); err != nil {
		return domain.Validationf("%v", err)
	}
	if err := a.customers.Create(ctx, c); err != nil {
		return err
	}
	return writeRecord(a.out, c.Record())
}

func runLookupAdd(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("lookup-add", flag.ContinueOnError)
	kind := fs.String("kind", "", "category, condition, location or tag")
	l := &domain.Lookup{}
	fs.StringVar(&l.Name, "name", "", "Name")
	fs.StringVar(&l.Icon, "icon", "", "Icon")
	fs.StringVar(&l.Color, "color", "", "Color")
	fs.IntVar(&l.SortOrder, "sort", 0, "Sort order")
	if err := fs.Parse(args); err != nil {
		return domain.Validationf("%v", err)
	}
	l.Kind = domain.LookupKind(*kind)
	if err := a.lookups.Create(ctx, l); err != nil {
		return err
	}
	return writeRecord(a.out, l.Record())
}

func runLookupList(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("lookup-list", flag.ContinueOnError)
	kind := fs.String("kind", "", "category, condition, location or tag")
	if err := fs.Parse(args); err != nil {
		return domain.Validationf("%v", err)
	}
	lookups, err := a.lookups.List(ctx, domain.LookupKind(*kind))
	if err != nil {
		return err
	}
	return writeLookups(a.out, lookups)
}

func writeLookups(w io.Writer, lookups []domain.Lookup) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSORT\tACTIVE")
	for _, l := range lookups {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%t\n", l.ID, l.Name, l.SortOrder, l.IsActive)
	}
	return tw.Flush()
}

// runLookupUpdate changes only the fields given on the command line
func runLookupUpdate(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("lookup-update", flag.ContinueOnError)
	id := fs.String("id", "", "Lookup ID")
	name := fs.String("name", "", "Name")
	icon := fs.String("icon", "", "Icon")
	color := fs.String("color", "", "Color")
	sort := fs.Int("sort", 0, "Sort order")
	active := fs.Bool("active", true, "Offer the entry for new equipment")
	if err := fs.Parse(args); err != nil {
		return domain.Validationf("%v", err)
	}

	lookupID, err := parseID(*id)
	if err != nil {
		return err
	}
	l, err := a.lookups.Get(ctx, lookupID)
	if err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "name":
			l.Name = *name
		case "icon":
			l.Icon = *icon
		case "color":
			l.Color = *color
		case "sort":
			l.SortOrder = *sort
		case "active":
			l.IsActive = *active
		}
	})
	if err := a.lookups.Update(ctx, l); err != nil {
		return err
	}
	return writeRecord(a.out, l.Record())
}

func runLookupDelete(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("lookup-delete", flag.ContinueOnError)
	id := fs.String("id", "", "Lookup ID")
	if err := fs.Parse(args); err != nil {
		return domain.Validationf("%v", err)
	}
	lookupID, err := parseID(*id)
	if err != nil {
		return err
	}
	if err := a.lookups.Delete(ctx, lookupID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted %s\n", lookupID)
	return nil
}

func runRentalCreate(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("rental-create", flag.ContinueOnError)
	customer := fs.String("customer", "", "Customer ID")
	start := fs.String("start", "", "Planned start (YYYY-MM-DD)")
	end := fs.String("end", "", "Planned end (YYYY-MM-DD)")
	items := fs.String("items", "", "Comma separated equipment IDs, optionally id:quantity")
	discount := fs.String("discount", "0", "Discount percent")
	additional := fs.String("additional", "0", "Additional costs")
	additionalDesc := fs.String("additional-description", "", "What the additional costs are for")
	deposit := fs.String("deposit", "0", "Deposit amount")
	purpose := fs.String("purpose", "", "Purpose")
	location := fs.String("location", "", "Event location")
	notes := fs.String("notes", "", "Notes")
	if err := fs.Parse(args); err != nil {
		return domain.Validationf("%v", err)
	}

	in := service.CreateRentalInput{
		AdditionalCostsDescription: *additionalDesc,
		Purpose:                    *purpose,
		EventLocation:              *location,
		Notes:                      *notes,
	}
	var err error
	if *customer != "" {
		id, err := uuid.Parse(*customer)
		if err != nil {
			return domain.Validationf("customer id %q is not a uuid", *customer)
		}
		in.CustomerID = &id
	}
	if in.PlannedStartDate, err = parseDate("start", *start); err != nil {
		return err
	}
	if in.PlannedEndDate, err = parseEndDate("end", *end); err != nil {
		return err
	}
	if in.Items, err = parseItems(*items); err != nil {
		return err
	}
	if in.DiscountPercent, err = parseDecimal("discount", *discount); err != nil {
		return err
	}
	if in.AdditionalCosts, err = parseDecimal("additional", *additional); err != nil {
		return err
	}
	if in.DepositAmount, err = parseDecimal("deposit", *deposit); err != nil {
		return err
	}

	r, err := a.rentals.CreateRental(ctx, in)
	if err != nil {
		return err
	}
	return writeRecord(a.out, r.Record())
}

func runRentalStart(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("rental-start", flag.ContinueOnError)
	id := fs.String("id", "", "Rental ID")
	notes := fs.String("notes", "", "Handover notes")
	signature := fs.String("signature", "", "Path to the signature image")
	condition := fs.String("condition", "", "Condition recorded for every item")
	if err := fs.Parse(args); err != nil {
		return domain.Validationf("%v", err)
	}

	rentalID, err := parseID(*id)
	if err != nil {
		return err
	}
	in := service.HandoverInput{Notes: *notes}
	if in.Signature, err = readSignature(*signature); err != nil {
		return err
	}
	if *condition != "" {
		v, err := a.rentals.Get(ctx, rentalID)
		if err != nil {
			return err
		}
		in.ItemConditions = make(map[uuid.UUID]string, len(v.Rental.Items))
		for _, it := range v.Rental.Items {
			in.ItemConditions[it.ID] = *condition
		}
	}

	r, err := a.rentals.Start(ctx, rentalID, in)
	if err != nil {
		return err
	}
	return writeRecord(a.out, r.Record())
}

func runRentalCancel(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("rental-cancel", flag.ContinueOnError)
	id := fs.String("id", "", "Rental ID")
	if err := fs.Parse(args); err != nil {
		return domain.Validationf("%v", err)
	}
	rentalID, err := parseID(*id)
	if err != nil {
		return err
	}
	r, err := a.rentals.Cancel(ctx, rentalID)
	if err != nil {
		return err
	}
	return writeRecord(a.out, r.Record())
}

func runRentalComplete(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("rental-complete", flag.ContinueOnError)
	id := fs.String("id", "", "Rental ID")
	notes := fs.String("notes", "", "Return notes")
	depositReturned := fs.Bool("deposit-returned", false, "Deposit was handed back")
	signature := fs.String("signature", "", "Path to the signature image")
	condition := fs.String("condition", "", "Condition recorded for every item")
	damaged := fs.String("damaged", "", "Comma separated item IDs that came back damaged")
	if err := fs.Parse(args); err != nil {
		return domain.Validationf("%v", err)
	}

	rentalID, err := parseID(*id)
	if err != nil {
		return err
	}
	in := service.ReturnInput{Notes: *notes, DepositReturned: *depositReturned}
	if in.Signature, err = readSignature(*signature); err != nil {
		return err
	}

	damagedIDs, err := parseIDList(*damaged)
	if err != nil {
		return err
	}
	if *condition != "" || len(damagedIDs) > 0 {
		v, err := a.rentals.Get(ctx, rentalID)
		if err != nil {
			return err
		}
		in.Items = make(map[uuid.UUID]service.ItemReturn, len(v.Rental.Items))
		for _, it := range v.Rental.Items {
			in.Items[it.ID] = service.ItemReturn{Condition: *condition, Damaged: slices.Contains(damagedIDs, it.ID)}
		}
	}

	r, err := a.rentals.Complete(ctx, rentalID, in)
	if err != nil {
		return err
	}
	return writeRecord(a.out, r.Record())
}

// ===============================
// Helpers
// ===============================

func writeRecord(w io.Writer, rec map[string]string) error {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, k := range keys {
		fmt.Fprintf(tw, "%s\t%s\n", k, rec[k])
	}
	return tw.Flush()
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, domain.Validationf("id %q is not a uuid", s)
	}
	return id, nil
}

func parseOptionalID(name, s string) (*uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return nil, domain.Validationf("-%s %q is not a uuid", name, s)
	}
	return &id, nil
}

func parseIDList(s string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		id, err := parseID(part)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func parseDate(name, s string) (time.Time, error) {
	t, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, domain.Validationf("-%s %q is not a YYYY-MM-DD date", name, s)
	}
	return t, nil
}

// parseEndDate resolves a due date to the last instant of that day so the
// rental is not overdue until the day has passed.
func parseEndDate(name, s string) (time.Time, error) {
	t, err := parseDate(name, s)
	if err != nil {
		return time.Time{}, err
	}
	return t.AddDate(0, 0, 1).Add(-time.Nanosecond), nil
}

func parseDecimal(name, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, domain.Validationf("-%s %q is not a number", name, s)
	}
	return d, nil
}

func parseOptionalDecimal(name, s string) (decimal.NullDecimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := parseDecimal(name, s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

// parseItems reads "id[:quantity],..."; quantity defaults to 1
func parseItems(s string) ([]service.ItemInput, error) {
	var items []service.ItemInput
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idPart, qtyPart, hasQty := strings.Cut(part, ":")
		id, err := parseID(idPart)
		if err != nil {
			return nil, err
		}
		qty := 1
		if hasQty {
			if qty, err = strconv.Atoi(qtyPart); err != nil {
				return nil, domain.Validationf("quantity %q is not a number", qtyPart)
			}
		}
		items = append(items, service.ItemInput{EquipmentID: id, Quantity: qty})
	}
	if len(items) == 0 {
		return nil, domain.Validationf("-items needs at least one equipment id")
	}
	return items, nil
}

func readSignature(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.Validationf("signature %s: %v", path, err)
	}
	return data, nil
}
