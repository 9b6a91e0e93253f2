package api

const loginMutation = `
mutation Login($email: String!, $password: String!) {
  login(email: $email, password: $password) {
    account { id role }
    accessToken
    refreshToken
  }
}`

const refreshTokenMutation = `
mutation RefreshToken($refreshToken: String!) {
  refreshToken(refreshToken: $refreshToken) {
    accessToken
  }
}`

const createAccountMutation = `
mutation CreateAccount($account: AccountInput!) {
  createAccount(account: $account) {
    id
    first_name
    last_name
    email
    role
  }
}`

const forgotPasswordMutation = `
mutation ForgotPassword($input: ForgotPasswordInput!) {
  forgotPassword(input: $input) {
    id
  }
}`

const resetPasswordMutation = `
mutation ResetPassword($input: ResetPasswordInput!) {
  resetPassword(input: $input) {
    id
    first_name
    last_name
    email
  }
}`

const productsQuery = `
query Products($pagination: PaginationInput, $query: String, $category: String, $sort: ProductSortInput) {
  products(pagination: $pagination, query: $query, category: $category, sort: $sort) {
    items {
      id
      name
      description
      price
      category
      imageUrl
      availability
      stock
    }
    totalCount
  }
}`

const productsByIDQuery = `
query ProductsById($ids: [String!]!) {
  productsById(ids: $ids) {
    id
    name
    description
    price
    category
    imageUrl
    availability
    stock
  }
}`

const accountQuery = `
query Account($id: String!, $accessToken: String!, $refreshToken: String!) {
  accounts(id: $id, accessToken: $accessToken, refreshToken: $refreshToken) {
    id
    first_name
    last_name
    email
    role
    orders {
      id
      createdAt
      totalPrice
      products {
        name
        quantity
        price
      }
    }
  }
}`

const createOrderMutation = `
mutation CreateOrder($order: OrderInput!) {
  createOrder(order: $order) {
    id
    createdAt
    totalPrice
    products {
      name
      quantity
      price
    }
  }
}`

const updateStockMutation = `
mutation UpdateStock($input: UpdateProductStockInput!) {
  updateStock(input: $input) {
    product {
      id
      name
      stock
    }
  }
}`
