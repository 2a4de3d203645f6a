package service

// User-facing messages
const (
	msgGenericFailure      = "Uh Oh, something went wrong. Please try again."
	msgNothingToPurchase   = "Please add items to your shopping cart before attempting to checkout."
	msgItemsUnavailable    = "Some of the items in your cart were no longer available. We are unable to checkout your cart."
	msgCartAdjusted        = "Some of the items in your cart were no longer available. We have adjusted your cart to remove these items."
	msgCartAdjustFailed    = "Uh Oh, we were unable to remove the invalid items from your cart."
	msgCustomCleanupFailed = "Some custom ducks failed to delete (%d of %d). Your purchase is still complete."
	msgPaymentFailed       = "We were unable to process your payment. Please try again."
	msgPurchaseComplete    = "Thank you for shopping at Quacker's Duck Emporium!"

	msgNotAuthorized  = "You are not authorized to view %s!"
	msgCartLoadFailed = "Unable to load your cart!"
	msgAccountMissing = "We could not find your account. Please login again."

	msgInvalidLogin       = "You entered an invalid password and/or username."
	msgWelcome            = "Welcome back to Quacker's Duck Emporium %s!"
	msgWeakPassword       = "Your password must be at least 8 characters long and have 1 uppercase letter, 1 lowercase letter, and 1 number."
	msgDuplicateUsername  = "An account with the name already exists. Please select a different one."
	msgRegisterFailed     = "Something went wrong creating your account. Please try again."
	msgRegistered         = "Your account was successfully created. Please login to continue."
	msgNoSuchUsername     = "No account was found with the username %s."
	msgPasswordChanged    = "Your password has successfully been changed. Please login to continue."
	msgPasswordFailed     = "Something went wrong resetting your password. Please try again."
	msgProfileUpdated     = "Your profile has been updated."
	msgProfileFailed      = "Something went wrong updating your profile. Please try again."
	msgDuckUnavailable    = "The duck with the id of %d is no longer available!"
	msgDuckAdded          = "Successfully added one duck with the id of %d to your cart!"
	msgDuckAddFailed      = "Failed to add the duck with the id of %d to your cart!"
	msgDuckDeleted        = "Successfully deleted the duck with the id %d."
	msgDuckDeleteMissing  = "Failed to delete the duck with the id %d because it does not exist!"
	msgDuckDeleteFailed   = "Failed to delete the duck with the id %d because something went wrong."
)
