package domain

// Category is one of the closed set of content categories a shortened URL
// can be assigned. Producers must route every incoming value through
// SafeCategory so that arbitrary strings never reach storage.
type Category string

// The closed category set.
const (
	CategoryNews      Category = "news"
	CategoryShopping  Category = "shopping"
	CategoryVideo     Category = "video"
	CategoryBlog      Category = "blog"
	CategoryDocs      Category = "docs"
	CategoryCommunity Category = "community"
	CategorySocial    Category = "social"
	CategoryDev       Category = "dev"
	CategorySearch    Category = "search"
	CategoryOther     Category = "other"
)

// Categories lists every valid category.
var Categories = []Category{
	CategoryNews,
	CategoryShopping,
	CategoryVideo,
	CategoryBlog,
	CategoryDocs,
	CategoryCommunity,
	CategorySocial,
	CategoryDev,
	CategorySearch,
	CategoryOther,
}

var categorySet = func() map[Category]struct{} {
	set := make(map[Category]struct{}, len(Categories))
	for _, c := range Categories {
		set[c] = struct{}{}
	}
	return set
}()

// Valid reports whether c is a member of the closed category set.
func (c Category) Valid() bool {
	_, ok := categorySet[c]
	return ok
}

// String returns the category as a plain string.
func (c Category) String() string {
	return string(c)
}

// SafeCategory coerces an arbitrary string into the closed category set.
// Unknown or invalid values become CategoryOther.
func SafeCategory(s string) Category {
	c := Category(s)
	if c.Valid() {
		return c
	}
	return CategoryOther
}
