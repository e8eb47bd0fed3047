package version

const Int = 3
