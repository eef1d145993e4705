package access

// IsConsumer is true for the buying side.
func IsConsumer(p Principal) bool {
	_, ok := p.(Consumer)
	return ok
}

// IsSupplierSide is true for every role that acts for a supplier.
func IsSupplierSide(p Principal) bool {
	switch p.(type) {
	case SupplierOwner, SupplierManager, SupplierSales:
		return true
	}
	return false
}

// CanCreateSupplier: only an owner account registers a company.
func CanCreateSupplier(p Principal) bool {
	_, ok := p.(SupplierOwner)
	return ok
}

// CanDecideLinks covers accept, block and remove.
func CanDecideLinks(p Principal) bool {
	switch p.(type) {
	case SupplierOwner, SupplierManager:
		return true
	}
	return false
}

// CanDecideOrders covers accept and reject.
func CanDecideOrders(p Principal) bool {
	switch p.(type) {
	case SupplierOwner, SupplierManager:
		return true
	}
	return false
}

func CanManageCatalog(p Principal) bool {
	_, ok := p.(SupplierOwner)
	return ok
}

func CanManageStaff(p Principal) bool {
	_, ok := p.(SupplierOwner)
	return ok
}

func CanViewStaff(p Principal) bool {
	switch p.(type) {
	case SupplierOwner, SupplierManager:
		return true
	}
	return false
}

func CanUpdateComplaintStatus(p Principal) bool {
	_, ok := p.(SupplierOwner)
	return ok
}

func CanEscalateComplaint(p Principal) bool {
	_, ok := p.(SupplierSales)
	return ok
}
